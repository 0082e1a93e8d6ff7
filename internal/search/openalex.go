package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// openAlexBase is the OpenAlex works endpoint. Tests substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

const openAlexMaxPage = 200

// OpenAlex implements Provider against the OpenAlex works API using cursor paging.
type OpenAlex struct {
	// Email is sent as mailto for the polite pool.
	Email      string
	HTTPClient *http.Client
	UserAgent  string
	Limiter    *rate.Limiter
}

func (o *OpenAlex) Name() string { return "openalex" }

func (o *OpenAlex) Search(ctx context.Context, query string, opts Options) (Iterator, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty openalex query")
	}
	perPage := clampPageSize(opts.PageSize, 25, openAlexMaxPage)
	cursor := "*"
	return newPager(func(ctx context.Context) ([]Candidate, bool, error) {
		page, next, err := o.page(ctx, q, cursor, perPage)
		if err != nil {
			return nil, false, err
		}
		if next == "" {
			return page, false, nil
		}
		cursor = next
		return page, true, nil
	}), nil
}

func (o *OpenAlex) page(ctx context.Context, query, cursor string, perPage int) ([]Candidate, string, error) {
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}
	params := url.Values{
		"search":   {query},
		"per-page": {strconv.Itoa(perPage)},
		"cursor":   {cursor},
	}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("openalex request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("openalex status: %d", resp.StatusCode)
	}
	var or openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, "", fmt.Errorf("parsing openalex response: %w", err)
	}
	out := make([]Candidate, 0, len(or.Results))
	for _, w := range or.Results {
		c := Candidate{
			Title:  strings.TrimSpace(w.DisplayName),
			Year:   w.PublicationYear,
			Source: o.Name(),
		}
		for _, a := range w.Authorships {
			if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
				c.Authors = append(c.Authors, name)
			}
		}
		if w.PrimaryLocation != nil {
			c.URL = strings.TrimSpace(w.PrimaryLocation.LandingPageURL)
			if w.PrimaryLocation.Source != nil {
				c.Venue = strings.TrimSpace(w.PrimaryLocation.Source.DisplayName)
			}
		}
		if c.URL == "" {
			c.URL = strings.TrimSpace(w.DOI)
		}
		n := w.CitedByCount
		c.Citations = &n
		out = append(out, c)
	}
	return out, or.Meta.NextCursor, nil
}

type openAlexResponse struct {
	Meta struct {
		Count      int    `json:"count"`
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	DisplayName     string `json:"display_name"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    int    `json:"cited_by_count"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	PrimaryLocation *struct {
		LandingPageURL string `json:"landing_page_url"`
		Source         *struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
}
