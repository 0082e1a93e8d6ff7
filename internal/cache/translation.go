package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scholarsearch/internal/translate"
)

// TranslationCache stores translated queries keyed by language pair and text.
type TranslationCache struct {
	Dir string
	// MaxAge makes older entries misses. Zero keeps entries forever.
	MaxAge      time.Duration
	StrictPerms bool
}

// KeyFrom builds a cache key from the language pair and the source text.
func KeyFrom(source, target, text string) string {
	return digest(source, target, text)
}

func (c *TranslationCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".txt")
}

// Get returns the cached translation if present and fresh.
func (c *TranslationCache) Get(_ context.Context, key string) (string, bool, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return "", false, err
	}
	p := c.pathFor(key)
	info, err := os.Stat(p)
	if err != nil {
		return "", false, nil
	}
	if c.MaxAge > 0 && time.Since(info.ModTime()) > c.MaxAge {
		return "", false, nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", false, nil
	}
	return string(b), true, nil
}

// Save writes a translation to the cache.
func (c *TranslationCache) Save(_ context.Context, key, text string) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	return writeAtomic(c.pathFor(key), []byte(text), c.StrictPerms)
}

// Translator memoizes Inner. Empty translations are not stored.
type Translator struct {
	Inner translate.Translator
	Cache *TranslationCache
}

func (t *Translator) Translate(ctx context.Context, text, source, target string) (translate.Result, error) {
	key := KeyFrom(source, target, text)
	if got, ok, err := t.Cache.Get(ctx, key); err != nil {
		log.Debug().Err(err).Msg("translation cache load failed")
	} else if ok {
		return translate.Result{Text: got}, nil
	}
	res, err := t.Inner.Translate(ctx, text, source, target)
	if err != nil {
		return res, err
	}
	if res.Text != "" {
		if err := t.Cache.Save(ctx, key, res.Text); err != nil {
			log.Debug().Err(err).Msg("translation cache save failed")
		}
	}
	return res, nil
}
