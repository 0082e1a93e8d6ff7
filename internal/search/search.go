package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Done is returned by Iterator.Next when the result sequence is exhausted.
// It is a termination signal, not a failure.
var Done = errors.New("no more results")

// Candidate is a single scholarly search hit before abstract resolution.
// Zero values mean the provider did not report the field.
type Candidate struct {
	Title     string  `json:"title"`
	Authors   Authors `json:"authors"`
	Venue     string  `json:"venue"`
	Year      int     `json:"year"`
	URL       string  `json:"url"`
	Citations *int    `json:"citations,omitempty"`
	Source    string  `json:"source,omitempty"` // provider name for observability
}

// Authors is an ordered list of author names. Providers that only report a
// preformatted author string produce a single-element list.
type Authors []string

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (a *Authors) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*a = nil
			return nil
		}
		*a = Authors{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*a = Authors(list)
	return nil
}

// Iterator is a lazy, finite, non-restartable sequence of candidates.
// Pages are requested from the upstream only when Next needs them.
type Iterator interface {
	// Next returns the next candidate, Done when exhausted, or another error
	// for a page or record that could not be read. Callers may keep calling
	// Next after a non-Done error.
	Next(ctx context.Context) (Candidate, error)
}

// Options tunes a single Search call.
type Options struct {
	// PageSize is a hint for how many records to request per upstream page.
	// Zero lets the provider choose.
	PageSize int
}

// Provider is a minimal interface for scholarly search providers.
type Provider interface {
	Search(ctx context.Context, query string, opts Options) (Iterator, error)
	Name() string
}

// pageFunc fetches one upstream page. It returns the records on the page and
// whether another page may follow.
type pageFunc func(ctx context.Context) ([]Candidate, bool, error)

// pager turns a page-at-a-time fetcher into an Iterator. The first page is
// fetched lazily on the first Next call.
type pager struct {
	fetch pageFunc
	buf   []Candidate
	more  bool
}

func newPager(fetch pageFunc) *pager {
	return &pager{fetch: fetch, more: true}
}

func (p *pager) Next(ctx context.Context) (Candidate, error) {
	for len(p.buf) == 0 {
		if !p.more {
			return Candidate{}, Done
		}
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		page, more, err := p.fetch(ctx)
		if err != nil {
			// A failed page ends the sequence after reporting the error once.
			p.more = false
			return Candidate{}, err
		}
		p.buf = page
		p.more = more && len(page) > 0
	}
	c := p.buf[0]
	p.buf = p.buf[1:]
	return c, nil
}

// SliceIterator iterates over an in-memory list. Useful for offline providers
// and tests.
type SliceIterator struct {
	items []Candidate
	pos   int
}

// NewSliceIterator returns an iterator over a copy of items.
func NewSliceIterator(items []Candidate) *SliceIterator {
	return &SliceIterator{items: append([]Candidate(nil), items...)}
}

func (s *SliceIterator) Next(_ context.Context) (Candidate, error) {
	if s.pos >= len(s.items) {
		return Candidate{}, Done
	}
	c := s.items[s.pos]
	s.pos++
	return c, nil
}

func clampPageSize(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
