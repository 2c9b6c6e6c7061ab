package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Inspect the campaign archive",
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a client's campaigns oldest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		clientID, _ := cmd.Flags().GetString("client")

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		campaigns, err := store.ListCampaigns(ctx, clientID)
		if err != nil {
			return err
		}
		if len(campaigns) == 0 {
			fmt.Printf("No campaigns for client %q\n", clientID)
			return nil
		}

		fmt.Printf("%-38s %-22s %8s\n", "campaign", "created", "leads")
		for _, c := range campaigns {
			fmt.Printf("%-38s %-22s %8d\n",
				c.CampaignID, c.CreatedAt.Format(time.RFC3339), c.LeadCount)
		}
		return nil
	},
}

var campaignsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Dump one campaign's lead snapshot as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		clientID, _ := cmd.Flags().GetString("client")
		campaignID, _ := cmd.Flags().GetString("id")
		outPath, _ := cmd.Flags().GetString("out")

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		campaigns, err := store.ListCampaigns(ctx, clientID)
		if err != nil {
			return err
		}
		var found *model.Campaign
		for i := range campaigns {
			if campaigns[i].CampaignID == campaignID {
				found = &campaigns[i]
				break
			}
		}
		if found == nil {
			return eris.Errorf("campaigns: %q has no campaign %q", clientID, campaignID)
		}

		if outPath != "" {
			return writeJSONFile(outPath, found)
		}
		fmt.Printf("Campaign %s: %d leads, created %s\n",
			found.CampaignID, found.LeadCount, found.CreatedAt.Format(time.RFC3339))
		for _, l := range found.Leads {
			fmt.Printf("  %-30s %-30s %s\n", l.FullName, l.Email, l.CompanyDomain)
		}
		return nil
	},
}

var campaignsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List a client's acquisition runs newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		clientID, _ := cmd.Flags().GetString("client")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(ctx, clientID, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Printf("No runs for client %q\n", clientID)
			return nil
		}

		fmt.Printf("%-38s %-20s %8s %8s\n", "run", "state", "target", "final")
		for _, r := range runs {
			fmt.Printf("%-38s %-20s %8d %8d\n", r.RunID, r.State, r.Target, r.Final)
		}
		return nil
	},
}

func init() {
	campaignsListCmd.Flags().String("client", "", "client identifier (required)")
	_ = campaignsListCmd.MarkFlagRequired("client")

	campaignsShowCmd.Flags().String("client", "", "client identifier (required)")
	campaignsShowCmd.Flags().String("id", "", "campaign identifier (required)")
	campaignsShowCmd.Flags().String("out", "", "write the campaign to this JSON file")
	_ = campaignsShowCmd.MarkFlagRequired("client")
	_ = campaignsShowCmd.MarkFlagRequired("id")

	campaignsRunsCmd.Flags().String("client", "", "client identifier (required)")
	campaignsRunsCmd.Flags().Int("limit", 20, "maximum runs to list")
	_ = campaignsRunsCmd.MarkFlagRequired("client")

	campaignsCmd.AddCommand(campaignsListCmd, campaignsShowCmd, campaignsRunsCmd)
	rootCmd.AddCommand(campaignsCmd)
}
