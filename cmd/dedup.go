package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/dedup"
	"github.com/kmicpaps/lead-gen-sub001/internal/fingerprint"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Deduplicate a lead file, optionally against campaign history",
	Long: `Runs tiered fingerprint deduplication on a JSON lead file. With
--client, the client's archived campaigns are loaded and batch leads that
match any prior campaign are removed as well.

Examples:
  leadgen dedup --in leads.json --out deduped.json
  leadgen dedup --in leads.json --client acme --out deduped.json --removals removals.json`,
	RunE: runDedup,
}

func init() {
	f := dedupCmd.Flags()
	f.String("in", "", "input JSON lead file (required)")
	f.String("out", "", "output JSON file for kept leads")
	f.String("removals", "", "output JSON file for removal records")
	f.String("client", "", "dedup against this client's campaign history")
	_ = dedupCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inPath, _ := cmd.Flags().GetString("in")
	outPath, _ := cmd.Flags().GetString("out")
	removalsPath, _ := cmd.Flags().GetString("removals")
	clientID, _ := cmd.Flags().GetString("client")

	leads, err := readLeads(inPath)
	if err != nil {
		return err
	}

	var history []model.Campaign
	if clientID != "" {
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		history, err = store.ListCampaigns(ctx, clientID)
		if err != nil {
			return err
		}
		zap.L().Info("dedup: loaded history",
			zap.String("client", clientID),
			zap.Int("campaigns", len(history)),
		)
	}

	engine := dedup.New(fingerprintConfig())
	result := engine.Run(leads, history)

	fmt.Printf("Input %d: kept %d, removed %d, unidentifiable %d\n",
		len(leads), len(result.Kept), len(result.Removed), len(result.Unidentifiable))
	byTier := map[int]int{}
	for _, rm := range result.Removed {
		byTier[rm.Tier]++
	}
	for t := fingerprint.TierEmail; t <= fingerprint.TierNameDom; t++ {
		if byTier[t] > 0 {
			fmt.Printf("  tier %d matches: %d\n", t, byTier[t])
		}
	}

	if outPath != "" {
		if err := writeJSONFile(outPath, result.Kept); err != nil {
			return err
		}
	}
	if removalsPath != "" {
		if err := writeJSONFile(removalsPath, result.Removed); err != nil {
			return err
		}
	}

	return nil
}
