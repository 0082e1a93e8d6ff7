package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scholarsearch/internal/fetch"
)

// PageEntry is the metadata stored next to a cached landing page body.
type PageEntry struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"`
	ContentType string    `json:"content_type"`
	SavedAt     time.Time `json:"saved_at"`
}

// PageCache stores decoded landing pages as <key>.meta.json and <key>.body
// where key is sha256(url). Only successful responses are stored.
type PageCache struct {
	Dir string
	// MaxAge makes older entries misses. Zero keeps entries forever.
	MaxAge      time.Duration
	StrictPerms bool
}

func (c *PageCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *PageCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// Load returns the cached response for url. ok is false on a miss or an
// expired entry.
func (c *PageCache) Load(_ context.Context, url string) (resp *fetch.Response, ok bool, err error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, false, err
	}
	key := digest(url)
	b, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, false, nil
	}
	var e PageEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false, nil
	}
	if c.MaxAge > 0 && time.Since(e.SavedAt) > c.MaxAge {
		return nil, false, nil
	}
	body, err := os.ReadFile(c.bodyPath(key))
	if err != nil {
		return nil, false, nil
	}
	return &fetch.Response{Status: http.StatusOK, Body: body, ContentType: e.ContentType, URL: e.FinalURL}, true, nil
}

// Save stores a successful response for url.
func (c *PageCache) Save(_ context.Context, url string, resp *fetch.Response) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	key := digest(url)
	// Write body first
	if err := writeAtomic(c.bodyPath(key), resp.Body, c.StrictPerms); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(PageEntry{
		URL:         url,
		FinalURL:    resp.URL,
		ContentType: resp.ContentType,
		SavedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return writeAtomic(c.metaPath(key), meta, c.StrictPerms)
}

// Getter is the fetch surface the abstract resolver uses.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Fetcher serves landing pages from a PageCache and falls through to Inner on
// a miss. Cache failures are logged and never fail the request.
type Fetcher struct {
	Inner Getter
	Cache *PageCache
}

func (f *Fetcher) Get(ctx context.Context, url string) (*fetch.Response, error) {
	if resp, ok, err := f.Cache.Load(ctx, url); err != nil {
		log.Debug().Err(err).Str("url", url).Msg("page cache load failed")
	} else if ok {
		log.Debug().Str("url", url).Msg("page cache hit")
		return resp, nil
	}
	resp, err := f.Inner.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusOK {
		if err := f.Cache.Save(ctx, url, resp); err != nil {
			log.Debug().Err(err).Str("url", url).Msg("page cache save failed")
		}
	}
	return resp, nil
}
