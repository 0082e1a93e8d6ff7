package abstract

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scholarsearch/internal/extract"
	"github.com/hyperifyio/scholarsearch/internal/fetch"
)

// Unavailable is returned by Resolve when no abstract could be obtained.
// It is distinct from an empty abstract and from a paper with no abstract.
const Unavailable = "Could not retrieve abstract"

// Fetcher retrieves one landing page. *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Resolver turns a landing page URL into an abstract.
type Resolver struct {
	Fetcher   Fetcher
	Extractor extract.Extractor
}

// Resolve fetches url and returns the longest abstract candidate found on the
// page. Every failure mode yields Unavailable; nothing is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, url string) string {
	resp, err := r.Fetcher.Get(ctx, url)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("abstract fetch failed")
		return Unavailable
	}
	if resp.Status != http.StatusOK {
		log.Debug().Int("status", resp.Status).Str("url", url).Msg("abstract fetch status")
		return Unavailable
	}
	ex := r.Extractor
	if ex == nil {
		ex = extract.RuleExtractor{}
	}
	text, ok := ex.Extract(resp.Body)
	if !ok || text == "" {
		log.Debug().Str("url", url).Msg("no abstract rule matched")
		return Unavailable
	}
	return text
}
