package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
	"github.com/kmicpaps/lead-gen-sub001/internal/resilience"
)

const apolloID = "apollo"

// apolloPageSize is the provider's maximum page size.
const apolloPageSize = 100

// ApolloAdapter is the primary source: a people-search API with full
// filter coverage. It enforces country, title, and industry filters
// natively at fetch time.
type ApolloAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

// NewApollo creates the primary adapter. rps bounds the request rate the
// provider allows on the account's plan.
func NewApollo(baseURL, apiKey string, rps float64) *ApolloAdapter {
	if rps <= 0 {
		rps = 1
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger(apolloID, "search")
	return &ApolloAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retry:   retry,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig()),
	}
}

func (a *ApolloAdapter) ID() string { return apolloID }

func (a *ApolloAdapter) NativeFilters() []string {
	return []string{"require_country", "exclude_titles_by_seniority_tier", "include_industries"}
}

// Mapping reflects the provider's people-search response schema.
func (a *ApolloAdapter) Mapping() normalize.Mapping {
	return normalize.Mapping{
		AdapterID: apolloID,
		Fields: map[string]string{
			"email":             normalize.FieldEmail,
			"sanitized_phone":   normalize.FieldPhone,
			"linkedin_url":      normalize.FieldLinkedInURL,
			"organization_name": normalize.FieldCompanyName,
			"website_url":       normalize.FieldWebsite,
			"name":              normalize.FieldFullName,
			"title":             normalize.FieldTitle,
			"industry":          normalize.FieldIndustry,
			"country":           normalize.FieldCountry,
		},
		Required: []string{"name"},
	}
}

type apolloSearchRequest struct {
	Page            int      `json:"page"`
	PerPage         int      `json:"per_page"`
	QKeywords       string   `json:"q_keywords,omitempty"`
	PersonLocations []string `json:"person_locations,omitempty"`
	PersonTitles    []string `json:"person_titles,omitempty"`
	Industries      []string `json:"organization_industries,omitempty"`
}

type apolloSearchResponse struct {
	People     []map[string]any `json:"people"`
	Pagination struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

// Fetch pages through the people-search endpoint until maxResults records
// are collected or the result set is exhausted.
func (a *ApolloAdapter) Fetch(ctx context.Context, q Query, maxResults int) ([]model.RawLead, error) {
	if a.apiKey == "" {
		return nil, resilience.NewAuthError(apolloID, eris.New("api key not configured"))
	}

	var leads []model.RawLead
	for page := 1; len(leads) < maxResults; page++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return leads, err
		}

		resp, err := resilience.BreakVal(ctx, a.breaker, func(ctx context.Context) (*apolloSearchResponse, error) {
			return resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*apolloSearchResponse, error) {
				return a.search(ctx, q, page)
			})
		})
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		for _, p := range resp.People {
			leads = append(leads, model.RawLead{
				SourceAdapterID: apolloID,
				Fields:          p,
				FetchedAt:       now,
			})
			if len(leads) >= maxResults {
				break
			}
		}

		if len(resp.People) == 0 || resp.Pagination.Page >= resp.Pagination.TotalPages {
			break
		}
	}

	zap.L().Info("apollo: fetch complete",
		zap.Int("requested", maxResults),
		zap.Int("obtained", len(leads)),
	)
	return leads, nil
}

func (a *ApolloAdapter) search(ctx context.Context, q Query, page int) (*apolloSearchResponse, error) {
	reqBody := apolloSearchRequest{
		Page:         page,
		PerPage:      apolloPageSize,
		QKeywords:    q.Keywords,
		PersonTitles: q.Titles,
		Industries:   q.Industries,
	}
	if q.Country != "" {
		reqBody.PersonLocations = []string{q.Country}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/mixed_people/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resilience.NewAuthError(apolloID, eris.Errorf("status %d", resp.StatusCode))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(fmt.Errorf("apollo: status %d", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("apollo: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: read body")
	}

	var out apolloSearchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "apollo: parse response")
	}
	return &out, nil
}
