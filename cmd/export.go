package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/export"
	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a lead file to an XLSX workbook",
	Long: `Writes the leads to a workbook for client delivery. With --report,
a second sheet carries the filter funnel so the client sees what was
removed and why.

Example:
  leadgen export --in filtered.json --report report.json --out delivery.xlsx`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("in", "", "input JSON lead file (required)")
	f.String("report", "", "filter funnel report JSON to include")
	f.String("out", "", "output XLSX path (required)")
	_ = exportCmd.MarkFlagRequired("in")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	inPath, _ := cmd.Flags().GetString("in")
	reportPath, _ := cmd.Flags().GetString("report")
	outPath, _ := cmd.Flags().GetString("out")

	leads, err := readLeads(inPath)
	if err != nil {
		return err
	}

	var report *model.FilterReport
	if reportPath != "" {
		data, err := os.ReadFile(reportPath)
		if err != nil {
			return eris.Wrapf(err, "export: read %s", reportPath)
		}
		report = &model.FilterReport{}
		if err := json.Unmarshal(data, report); err != nil {
			return eris.Wrapf(err, "export: parse %s", reportPath)
		}
	}

	if err := export.WriteWorkbook(outPath, leads, report); err != nil {
		return err
	}

	zap.L().Info("export: workbook written",
		zap.String("path", outPath),
		zap.Int("leads", len(leads)),
	)
	return nil
}
