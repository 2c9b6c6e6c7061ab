package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/source"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Run a multi-source acquisition with backup gap-fill",
	Long: `Fetches leads from the primary source, fills any shortfall from backup
sources in parallel with per-source oversampling, normalizes, deduplicates
within the batch and against the client's campaign history, and optionally
commits the result as a new campaign.

Examples:
  # Dry run: fetch and dedup 2000 leads without committing
  leadgen acquire --client acme --target 2000 --keywords "logistics" --country LV

  # Commit the batch as a campaign and keep the lead file for filtering
  leadgen acquire --client acme --target 2000 --commit --out leads.json`,
	RunE: runAcquire,
}

func init() {
	f := acquireCmd.Flags()
	f.String("client", "", "client identifier (required)")
	f.Int("target", 0, "number of leads to acquire (required)")
	f.String("keywords", "", "search keywords")
	f.String("country", "", "target country code")
	f.StringSlice("titles", nil, "target job titles")
	f.StringSlice("industries", nil, "target industries")
	f.Bool("commit", false, "commit the deduplicated batch as a campaign")
	f.String("out", "", "write the final leads to this JSON file")
	_ = acquireCmd.MarkFlagRequired("client")
	_ = acquireCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	clientID, _ := cmd.Flags().GetString("client")
	target, _ := cmd.Flags().GetInt("target")
	commit, _ := cmd.Flags().GetBool("commit")
	outPath, _ := cmd.Flags().GetString("out")

	keywords, _ := cmd.Flags().GetString("keywords")
	country, _ := cmd.Flags().GetString("country")
	titles, _ := cmd.Flags().GetStringSlice("titles")
	industries, _ := cmd.Flags().GetStringSlice("industries")

	q := source.Query{
		Keywords:   keywords,
		Country:    country,
		Titles:     titles,
		Industries: industries,
	}

	result, err := env.Orch.Run(ctx, clientID, q, target, commit)
	if err != nil {
		return eris.Wrap(err, "acquire")
	}

	r := result.Report
	fmt.Printf("Run %s: %s\n", r.RunID, r.State)
	for _, y := range r.Sources {
		line := fmt.Sprintf("  %-10s requested %5d, obtained %5d", y.AdapterID, y.Requested, y.Obtained)
		if y.Cause != "" {
			line += "  (" + y.Cause + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("Obtained %d, schema rejects %d, unidentifiable %d\n",
		r.Obtained, r.SchemaRejects, r.Unidentifiable)
	fmt.Printf("Removed %d batch duplicates, %d history duplicates; final %d of %d\n",
		r.DedupedBatch, r.DedupedHistory, r.Final, r.Target)
	if r.CampaignID != "" {
		fmt.Printf("Committed campaign %s\n", r.CampaignID)
	}

	if outPath != "" {
		if err := writeJSONFile(outPath, result.Leads); err != nil {
			return err
		}
		zap.L().Info("acquire: leads written", zap.String("path", outPath), zap.Int("count", len(result.Leads)))
	}

	return nil
}
