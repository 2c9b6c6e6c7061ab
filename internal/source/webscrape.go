package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
	"github.com/kmicpaps/lead-gen-sub001/internal/resilience"
)

const webscrapeID = "webscrape"

// WebScrapeAdapter is a backup source: a generic business-directory
// scraping service with a flat schema and no native title or industry
// filtering. Everything beyond location is enforced post-hoc, which is why
// the orchestrator oversamples it.
type WebScrapeAdapter struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

// NewWebScrape creates the directory-scraper backup adapter.
func NewWebScrape(baseURL, token string, rps float64) *WebScrapeAdapter {
	if rps <= 0 {
		rps = 2
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger(webscrapeID, "scrape")
	return &WebScrapeAdapter{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   retry,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig()),
	}
}

func (w *WebScrapeAdapter) ID() string { return webscrapeID }

func (w *WebScrapeAdapter) NativeFilters() []string {
	return []string{"require_country"}
}

// Mapping reflects the scraper's flat CSV-ish schema. Records without a
// business name are schema mismatches.
func (w *WebScrapeAdapter) Mapping() normalize.Mapping {
	return normalize.Mapping{
		AdapterID: webscrapeID,
		Fields: map[string]string{
			"contact_email": normalize.FieldEmail,
			"phone_number":  normalize.FieldPhone,
			"linkedin":      normalize.FieldLinkedInURL,
			"business_name": normalize.FieldCompanyName,
			"site":          normalize.FieldWebsite,
			"contact_name":  normalize.FieldFullName,
			"contact_role":  normalize.FieldTitle,
			"category":      normalize.FieldIndustry,
			"country_name":  normalize.FieldCountry,
		},
		Required: []string{"business_name"},
	}
}

// Fetch queries the scraping service once; the service handles its own
// pagination server-side and caps results at the limit parameter.
func (w *WebScrapeAdapter) Fetch(ctx context.Context, q Query, maxResults int) ([]model.RawLead, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rows, err := resilience.BreakVal(ctx, w.breaker, func(ctx context.Context) ([]map[string]any, error) {
		return resilience.DoVal(ctx, w.retry, func(ctx context.Context) ([]map[string]any, error) {
			return w.scrape(ctx, q, maxResults)
		})
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leads := make([]model.RawLead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, model.RawLead{
			SourceAdapterID: webscrapeID,
			Fields:          row,
			FetchedAt:       now,
		})
		if len(leads) >= maxResults {
			break
		}
	}

	zap.L().Info("webscrape: fetch complete",
		zap.Int("requested", maxResults),
		zap.Int("obtained", len(leads)),
	)
	return leads, nil
}

func (w *WebScrapeAdapter) scrape(ctx context.Context, q Query, maxResults int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("query", q.Keywords)
	params.Set("limit", strconv.Itoa(maxResults))
	if q.Country != "" {
		params.Set("country", q.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/api/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "webscrape: build request")
	}
	req.Header.Set("Authorization", "Bearer "+w.token)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resilience.NewAuthError(webscrapeID, eris.Errorf("status %d", resp.StatusCode))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(fmt.Errorf("webscrape: status %d", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("webscrape: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "webscrape: read body")
	}

	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "webscrape: parse response")
	}
	return out.Results, nil
}
