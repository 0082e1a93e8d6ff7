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

// SearxNG implements Provider against a SearxNG instance's /search endpoint,
// restricted to the science category and paged with pageno.
type SearxNG struct {
	BaseURL    string
	APIKey     string // optional
	HTTPClient *http.Client
	UserAgent  string // optional custom UA
	Limiter    *rate.Limiter
	// MaxPages bounds how far the iterator walks. Zero means 5.
	MaxPages int
}

func (s *SearxNG) Name() string { return "searxng" }

func (s *SearxNG) Search(ctx context.Context, query string, _ Options) (Iterator, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("missing searxng base url")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, err
	}
	// Ensure path
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}
	pageNo := 1
	return newPager(func(ctx context.Context) ([]Candidate, bool, error) {
		page, err := s.page(ctx, *u, query, pageNo)
		if err != nil {
			return nil, false, err
		}
		pageNo++
		return page, pageNo <= maxPages, nil
	}), nil
}

func (s *SearxNG) page(ctx context.Context, u url.URL, query string, pageNo int) ([]Candidate, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("language", "auto")
	q.Set("safesearch", "1")
	q.Set("categories", "science")
	q.Set("pageno", strconv.Itoa(pageNo))
	if s.APIKey != "" {
		q.Set("apikey", s.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("searxng status: %d", resp.StatusCode)
	}
	var sr searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.Title == "" {
			continue
		}
		out = append(out, Candidate{
			Title:   strings.TrimSpace(r.Title),
			Authors: r.Authors,
			Venue:   strings.TrimSpace(r.Journal),
			Year:    yearOf(r.PublishedDate),
			URL:     strings.TrimSpace(r.URL),
			Source:  s.Name(),
		})
	}
	return out, nil
}

// yearOf pulls the leading four-digit year out of an ISO-ish date string.
func yearOf(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

type searxResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Authors       Authors `json:"authors"`
		Journal       string  `json:"journal"`
		PublishedDate string  `json:"publishedDate"`
	} `json:"results"`
}
