// Package export hands the final filtered lead set to the spreadsheet
// collaborator: a workbook with the leads and the funnel that produced
// them. Formatting beyond that is the downstream tool's concern.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
)

var leadHeader = []string{
	"full_name", "title", "email", "phone", "linkedin_url",
	"company_name", "company_domain", "website", "industry", "country", "source",
}

// WriteWorkbook writes leads plus an optional funnel sheet to path.
func WriteWorkbook(path string, leads []model.NormalizedLead, report *model.FilterReport) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add leads sheet")
	}

	row := sheet.AddRow()
	for _, h := range leadHeader {
		row.AddCell().SetString(h)
	}
	for _, l := range leads {
		row := sheet.AddRow()
		for _, v := range []string{
			l.FullName, l.Title, l.Email, l.Phone, l.LinkedInURL,
			l.CompanyName, l.CompanyDomain, l.Website, l.Industry, l.Country, l.SourceAdapterID,
		} {
			row.AddCell().SetString(v)
		}
	}

	if report != nil {
		funnel, err := f.AddSheet("Funnel")
		if err != nil {
			return eris.Wrap(err, "export: add funnel sheet")
		}
		head := funnel.AddRow()
		for _, h := range []string{"filter", "count_before", "count_removed", "count_after"} {
			head.AddCell().SetString(h)
		}
		for _, stage := range report.Stages {
			row := funnel.AddRow()
			row.AddCell().SetString(stage.FilterName)
			row.AddCell().SetString(strconv.Itoa(stage.CountBefore))
			row.AddCell().SetString(strconv.Itoa(stage.CountRemoved))
			row.AddCell().SetString(strconv.Itoa(stage.CountBefore - stage.CountRemoved))
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
