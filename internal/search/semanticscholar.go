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

// semanticScholarBase is the Graph API paper search endpoint. Declared as a
// var so tests can point it at an httptest server.
var semanticScholarBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticScholarFields  = "title,authors,venue,year,url,citationCount,externalIds"
	semanticScholarMaxPage = 100
)

// SemanticScholar implements Provider against the Semantic Scholar Graph API
// using offset paging.
type SemanticScholar struct {
	APIKey     string // optional; raises the upstream rate limit
	HTTPClient *http.Client
	UserAgent  string
	// Limiter paces page requests. Nil means no pacing.
	Limiter *rate.Limiter
}

func (s *SemanticScholar) Name() string { return "semanticscholar" }

func (s *SemanticScholar) Search(ctx context.Context, query string, opts Options) (Iterator, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty semantic scholar query")
	}
	limit := clampPageSize(opts.PageSize, 20, semanticScholarMaxPage)
	offset := 0
	return newPager(func(ctx context.Context) ([]Candidate, bool, error) {
		page, next, err := s.page(ctx, q, offset, limit)
		if err != nil {
			return nil, false, err
		}
		if next <= offset {
			return page, false, nil
		}
		offset = next
		return page, true, nil
	}), nil
}

// page fetches one result page and returns the offset of the following page,
// or -1 when the upstream reports no further results.
func (s *SemanticScholar) page(ctx context.Context, query string, offset, limit int) ([]Candidate, int, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, -1, err
		}
	}
	params := url.Values{
		"query":  {query},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticScholarFields},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticScholarBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, -1, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("semantic scholar request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, -1, fmt.Errorf("semantic scholar status: %d", resp.StatusCode)
	}
	var sr semanticScholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, -1, fmt.Errorf("parsing semantic scholar response: %w", err)
	}
	out := make([]Candidate, 0, len(sr.Data))
	for _, p := range sr.Data {
		c := Candidate{
			Title:  strings.TrimSpace(p.Title),
			Venue:  strings.TrimSpace(p.Venue),
			Year:   p.Year,
			URL:    landingPage(p),
			Source: s.Name(),
		}
		for _, a := range p.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				c.Authors = append(c.Authors, name)
			}
		}
		if p.CitationCount != nil {
			n := *p.CitationCount
			c.Citations = &n
		}
		out = append(out, c)
	}
	next := -1
	if sr.Next != nil {
		next = *sr.Next
	}
	return out, next, nil
}

// landingPage prefers the publisher page reached through the DOI resolver;
// the Semantic Scholar page itself is rendered client-side and rarely carries
// abstract markup.
func landingPage(p semanticScholarPaper) string {
	if doi := strings.TrimSpace(p.ExternalIDs.DOI); doi != "" {
		return "https://doi.org/" + doi
	}
	if id := strings.TrimSpace(p.ExternalIDs.ArXiv); id != "" {
		return "https://arxiv.org/abs/" + id
	}
	return strings.TrimSpace(p.URL)
}

type semanticScholarResponse struct {
	Total  int                    `json:"total"`
	Offset int                    `json:"offset"`
	Next   *int                   `json:"next"`
	Data   []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Venue         string `json:"venue"`
	Year          int    `json:"year"`
	URL           string `json:"url"`
	CitationCount *int   `json:"citationCount"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
}
