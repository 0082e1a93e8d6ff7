package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// ErrEmptyTranslation is returned when a backend answers with no text.
var ErrEmptyTranslation = errors.New("empty translation")

// Result is a translation outcome.
type Result struct {
	Text string
}

// Translator converts text between two BCP 47 languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (Result, error)
}

// ContainsCJK reports whether s has at least one rune in the CJK Unified
// Ideographs block (U+4E00..U+9FFF).
func ContainsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// Normalizer rewrites CJK queries into the target language before search.
type Normalizer struct {
	Translator Translator
	// Source and Target are BCP 47 tags. Empty means zh-CN and en.
	Source string
	Target string
	// Fallback continues with the untranslated query when translation fails.
	Fallback bool
}

// Normalize returns query unchanged when it has no CJK characters and never
// calls the translator in that case. Otherwise it returns the translation.
func (n *Normalizer) Normalize(ctx context.Context, query string) (string, error) {
	if !ContainsCJK(query) {
		return query, nil
	}
	source, target := n.Source, n.Target
	if source == "" {
		source = "zh-CN"
	}
	if target == "" {
		target = "en"
	}
	res, err := translateOnce(ctx, n.Translator, query, source, target)
	if err != nil {
		if n.Fallback {
			log.Warn().Err(err).Str("query", query).Msg("translation failed; searching with original query")
			return query, nil
		}
		return "", fmt.Errorf("translate query: %w", err)
	}
	log.Debug().Str("from", query).Str("to", res).Msg("query translated")
	return res, nil
}

// Normalize is a convenience for a default Normalizer around t.
func Normalize(ctx context.Context, t Translator, query string) (string, error) {
	return (&Normalizer{Translator: t}).Normalize(ctx, query)
}

func translateOnce(ctx context.Context, t Translator, text, source, target string) (string, error) {
	if t == nil {
		return "", errors.New("no translator configured")
	}
	res, err := t.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(res.Text)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}

// ValidateTag reports whether tag parses as a BCP 47 language tag.
func ValidateTag(tag string) error {
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return nil
}

// Passthrough returns its input. Used when translation is disabled.
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, text, _, _ string) (Result, error) {
	return Result{Text: text}, nil
}
