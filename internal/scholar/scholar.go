package scholar

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scholarsearch/internal/collect"
	"github.com/hyperifyio/scholarsearch/internal/report"
)

// ErrEmptyQuery is returned when the query is blank.
var ErrEmptyQuery = errors.New("query is empty")

// QueryNormalizer rewrites a query into the language the provider expects.
type QueryNormalizer interface {
	Normalize(ctx context.Context, query string) (string, error)
}

// PaperCollector gathers up to n papers with abstracts for a query.
type PaperCollector interface {
	Collect(ctx context.Context, query string, n int) ([]collect.Paper, error)
}

// Service runs one search invocation: normalize, collect, format.
// It holds no state between calls and is safe for concurrent use when its
// collaborators are.
type Service struct {
	Normalizer QueryNormalizer
	Collector  PaperCollector
}

// Result carries the intermediate values of one invocation.
type Result struct {
	Query       string
	SearchQuery string
	Papers      []collect.Paper
	Text        string
}

// Run performs the search and returns both the papers and the formatted text.
func (s *Service) Run(ctx context.Context, query string, n int) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, ErrEmptyQuery
	}
	start := time.Now()
	res := Result{Query: query, SearchQuery: query}
	if s.Normalizer != nil {
		q, err := s.Normalizer.Normalize(ctx, query)
		if err != nil {
			return Result{}, err
		}
		res.SearchQuery = q
	}
	papers, err := s.Collector.Collect(ctx, res.SearchQuery, n)
	if err != nil {
		return Result{}, err
	}
	res.Papers = papers
	res.Text = report.Format(papers)
	log.Info().Str("query", res.SearchQuery).Int("papers", len(papers)).Dur("elapsed", time.Since(start)).Msg("search complete")
	return res, nil
}

// Search returns the formatted result block for query.
func (s *Service) Search(ctx context.Context, query string, n int) (string, error) {
	res, err := s.Run(ctx, query, n)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
