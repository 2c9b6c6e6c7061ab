package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/filter"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Apply an ordered filter plan to a lead file",
	Long: `Applies the plan's filters strictly in listed order and reports the
funnel: for each stage, the count entering it and the count it removed.
Reordering the plan changes per-stage attribution, so the report is only
comparable against runs of the same plan.

Example:
  leadgen filter --in leads.json --plan filters.yaml --out filtered.json --report report.json`,
	RunE: runFilter,
}

func init() {
	f := filterCmd.Flags()
	f.String("in", "", "input JSON lead file (required)")
	f.String("plan", "", "YAML filter plan (required)")
	f.String("out", "", "output JSON file for kept leads")
	f.String("report", "", "output JSON file for the funnel report")
	_ = filterCmd.MarkFlagRequired("in")
	_ = filterCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, _ []string) error {
	inPath, _ := cmd.Flags().GetString("in")
	planPath, _ := cmd.Flags().GetString("plan")
	outPath, _ := cmd.Flags().GetString("out")
	reportPath, _ := cmd.Flags().GetString("report")

	leads, err := readLeads(inPath)
	if err != nil {
		return err
	}

	plan, err := filter.LoadPlan(planPath)
	if err != nil {
		return err
	}

	report, err := filter.Apply(leads, plan.Filters)
	if err != nil {
		return eris.Wrap(err, "filter")
	}

	fmt.Printf("%-38s %8s %8s\n", "filter", "before", "removed")
	for _, stage := range report.Stages {
		fmt.Printf("%-38s %8d %8d\n", stage.FilterName, stage.CountBefore, stage.CountRemoved)
	}
	fmt.Printf("Final: %d of %d\n", report.FinalLen, len(leads))

	if outPath != "" {
		if err := writeJSONFile(outPath, report.Kept); err != nil {
			return err
		}
		zap.L().Info("filter: leads written", zap.String("path", outPath), zap.Int("count", len(report.Kept)))
	}
	if reportPath != "" {
		if err := writeJSONFile(reportPath, report); err != nil {
			return err
		}
	}

	return nil
}
