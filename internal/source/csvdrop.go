package source

import (
	"context"
	"encoding/csv"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
	"github.com/kmicpaps/lead-gen-sub001/internal/resilience"
)

const csvDropID = "csvdrop"

// CSVDropAdapter is a backup source fed by partner CSV exports dropped
// into an FTP box. Files are read newest-first; the adapter enforces no
// filters natively, so everything is post-hoc.
type CSVDropAdapter struct {
	addr     string
	user     string
	password string
	dir      string
	timeout  time.Duration
}

// NewCSVDrop creates the FTP drop-box adapter.
func NewCSVDrop(addr, user, password, dir string) *CSVDropAdapter {
	return &CSVDropAdapter{
		addr:     addr,
		user:     user,
		password: password,
		dir:      dir,
		timeout:  30 * time.Second,
	}
}

func (c *CSVDropAdapter) ID() string { return csvDropID }

func (c *CSVDropAdapter) NativeFilters() []string { return nil }

// Mapping reflects the agreed partner export header row.
func (c *CSVDropAdapter) Mapping() normalize.Mapping {
	return normalize.Mapping{
		AdapterID: csvDropID,
		Fields: map[string]string{
			"email":        normalize.FieldEmail,
			"phone":        normalize.FieldPhone,
			"linkedin_url": normalize.FieldLinkedInURL,
			"company":      normalize.FieldCompanyName,
			"website":      normalize.FieldWebsite,
			"full_name":    normalize.FieldFullName,
			"job_title":    normalize.FieldTitle,
			"industry":     normalize.FieldIndustry,
			"country":      normalize.FieldCountry,
		},
		Required: []string{"company"},
	}
}

// Fetch lists *.csv files in the drop directory and reads rows newest file
// first until maxResults records are collected. The query is ignored apart
// from logging: drop files are pre-filtered by the partner.
func (c *CSVDropAdapter) Fetch(ctx context.Context, q Query, maxResults int) ([]model.RawLead, error) {
	conn, err := ftp.Dial(c.addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(c.timeout))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "csvdrop: dial"), 0)
	}
	defer conn.Quit()

	if err := conn.Login(c.user, c.password); err != nil {
		return nil, resilience.NewAuthError(csvDropID, err)
	}

	entries, err := conn.List(c.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "csvdrop: list %s", c.dir)
	}

	var files []*ftp.Entry
	for _, e := range entries {
		if e.Type == ftp.EntryTypeFile && strings.HasSuffix(strings.ToLower(e.Name), ".csv") {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Time.After(files[j].Time) })

	var leads []model.RawLead
	for _, f := range files {
		if len(leads) >= maxResults {
			break
		}
		rows, err := c.readFile(conn, path.Join(c.dir, f.Name))
		if err != nil {
			zap.L().Warn("csvdrop: skipping unreadable file",
				zap.String("file", f.Name),
				zap.Error(err),
			)
			continue
		}
		now := time.Now().UTC()
		for _, row := range rows {
			leads = append(leads, model.RawLead{
				SourceAdapterID: csvDropID,
				Fields:          row,
				FetchedAt:       now,
			})
			if len(leads) >= maxResults {
				break
			}
		}
	}

	zap.L().Info("csvdrop: fetch complete",
		zap.String("query", q.Keywords),
		zap.Int("files", len(files)),
		zap.Int("obtained", len(leads)),
	)
	return leads, nil
}

func (c *CSVDropAdapter) readFile(conn *ftp.ServerConn, filePath string) ([]map[string]any, error) {
	resp, err := conn.Retr(filePath)
	if err != nil {
		return nil, eris.Wrapf(err, "csvdrop: retr %s", filePath)
	}
	defer resp.Close()

	return ParseCSVRecords(resp)
}

// ParseCSVRecords reads a headered CSV stream into raw field maps. Rows
// with a column count mismatch are skipped, not fatal: one bad row must
// not sink a partner file.
func ParseCSVRecords(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "csvdrop: read header")
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csvdrop: read row")
		}
		if len(record) != len(header) {
			continue
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
