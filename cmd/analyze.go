package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kmicpaps/lead-gen-sub001/internal/filter"
	"github.com/kmicpaps/lead-gen-sub001/internal/quality"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Produce a read-only quality report for a lead file",
	Long: `Computes coverage and consistency statistics without modifying the
batch: email presence and validity, phone country consistency against the
expected country, title-list match rate, industry distribution, and the
isolated would-remove impact of every filter in the candidate plan.

Examples:
  leadgen analyze --in leads.json --country Latvia --titles "owner,director"
  leadgen analyze --in leads.json --country Latvia --plan filters.yaml --json report.json`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("in", "", "input JSON lead file (required)")
	f.String("country", "", "expected country, e.g. Latvia")
	f.String("titles", "", "comma-separated target titles")
	f.String("plan", "", "YAML filter plan to evaluate as candidates")
	f.StringSlice("native", nil, "filter names the primary source enforced at fetch time")
	f.String("json", "", "write the full report to this JSON file")
	_ = analyzeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	inPath, _ := cmd.Flags().GetString("in")
	country, _ := cmd.Flags().GetString("country")
	titlesCSV, _ := cmd.Flags().GetString("titles")
	planPath, _ := cmd.Flags().GetString("plan")
	native, _ := cmd.Flags().GetStringSlice("native")
	jsonPath, _ := cmd.Flags().GetString("json")

	leads, err := readLeads(inPath)
	if err != nil {
		return err
	}

	var titles []string
	for _, t := range strings.Split(titlesCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}

	var candidates []filter.Spec
	if planPath != "" {
		plan, err := filter.LoadPlan(planPath)
		if err != nil {
			return err
		}
		candidates = plan.Filters
	}

	report, err := quality.Analyze(leads, quality.Context{
		ExpectedCountry:  country,
		TargetTitles:     titles,
		CandidateFilters: candidates,
		NativeFilters:    native,
	})
	if err != nil {
		return eris.Wrap(err, "analyze")
	}

	fmt.Printf("Leads: %d\n", report.Total)
	fmt.Printf("Email:  %d present (%d valid, %d invalid), %d absent\n",
		report.Email.Present, report.Email.Valid, report.Email.Invalid, report.Email.Absent)
	fmt.Printf("Phone:  %d present (%d match %s, %d foreign, %d unknown code), %d absent\n",
		report.Phone.Present, report.Phone.MatchesExpected, country,
		report.Phone.Foreign, report.Phone.UnknownCode, report.Phone.Absent)
	if len(titles) > 0 {
		fmt.Printf("Titles: %d of %d match the target list (%.1f%%)\n",
			report.TitleMatched, report.Total, report.TitleMatchRate()*100)
	}

	if top := report.TopIndustries(10); len(top) > 0 {
		fmt.Println("Top industries:")
		for _, name := range top {
			fmt.Printf("  %-30s %d\n", name, report.Industries[name])
		}
	}

	if len(report.Impacts) > 0 {
		fmt.Println("Filter impact (each in isolation):")
		for _, imp := range report.Impacts {
			tag := ""
			if imp.Native {
				tag = "  [native]"
			}
			fmt.Printf("  %-35s would remove %5d%s\n", imp.Spec.Name, imp.WouldRemove, tag)
		}
	}

	if jsonPath != "" {
		if err := writeJSONFile(jsonPath, report); err != nil {
			return err
		}
	}

	return nil
}
