package collect

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scholarsearch/internal/abstract"
	"github.com/hyperifyio/scholarsearch/internal/search"
)

// DefaultResults is used when a caller asks for zero or fewer papers.
const DefaultResults = 10

const (
	defaultDelayBase   = 2 * time.Second
	defaultDelayStdDev = 500 * time.Millisecond
)

// Paper is a candidate whose abstract was resolved.
type Paper struct {
	search.Candidate
	Abstract string
}

// AbstractResolver maps a landing page URL to an abstract or abstract.Unavailable.
type AbstractResolver interface {
	Resolve(ctx context.Context, url string) string
}

// Rand supplies the jitter sample. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	NormFloat64() float64
}

// SleepFunc pauses between attempts and returns early with ctx.Err().
type SleepFunc func(ctx context.Context, d time.Duration) error

type globalRand struct{}

func (globalRand) NormFloat64() float64 { return rand.NormFloat64() }

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Collector pulls candidates from a provider and keeps those with abstracts.
type Collector struct {
	Provider search.Provider
	Resolver AbstractResolver
	// DefaultN replaces non-positive n. Zero means DefaultResults.
	DefaultN int
	// DelayBase and DelayStdDev shape the pause between attempts. Both zero
	// means 2s and 0.5s; set DelayBase negative to disable pausing.
	DelayBase   time.Duration
	DelayStdDev time.Duration
	Rand        Rand
	Sleep       SleepFunc
}

// Collect returns at most n papers with resolved abstracts, examining at most
// 2n candidates. The result may be empty. Errors are returned only when the
// provider cannot start, including a failed first page, or ctx ends.
func (c *Collector) Collect(ctx context.Context, query string, n int) ([]Paper, error) {
	if n <= 0 {
		n = c.DefaultN
		if n <= 0 {
			n = DefaultResults
		}
	}
	maxAttempts := 2 * n
	it, err := c.Provider.Search(ctx, query, search.Options{PageSize: maxAttempts})
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", c.Provider.Name(), err)
	}

	papers := make([]Paper, 0, n)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, ok, done, err := c.attempt(ctx, it, attempt)
		if err != nil {
			return nil, fmt.Errorf("%s search: %w", c.Provider.Name(), err)
		}
		if done {
			break
		}
		if ok {
			papers = append(papers, p)
			if len(papers) == n {
				break
			}
		}
		if attempt == maxAttempts {
			break
		}
		if err := c.pause(ctx); err != nil {
			return papers, err
		}
	}
	log.Debug().Str("query", query).Int("requested", n).Int("collected", len(papers)).Msg("collection finished")
	return papers, nil
}

// attempt processes one candidate. done reports iterator exhaustion; err is
// set only when the first pull fails, which means the provider never started.
func (c *Collector) attempt(ctx context.Context, it search.Iterator, attempt int) (p Paper, ok bool, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Int("attempt", attempt).Interface("panic", r).Msg("skipping candidate after panic")
			p, ok, done, err = Paper{}, false, false, nil
		}
	}()
	cand, err := it.Next(ctx)
	if errors.Is(err, search.Done) {
		return Paper{}, false, true, nil
	}
	if err != nil {
		if attempt == 1 {
			return Paper{}, false, false, err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("skipping candidate")
		return Paper{}, false, false, nil
	}
	text := abstract.Unavailable
	if cand.URL != "" {
		text = c.Resolver.Resolve(ctx, cand.URL)
	}
	if text == abstract.Unavailable || text == "" {
		log.Debug().Int("attempt", attempt).Str("url", cand.URL).Str("title", cand.Title).Msg("no abstract")
		return Paper{}, false, false, nil
	}
	return Paper{Candidate: cand, Abstract: text}, true, false, nil
}

func (c *Collector) pause(ctx context.Context) error {
	base, sd := c.DelayBase, c.DelayStdDev
	if base == 0 && sd == 0 {
		base, sd = defaultDelayBase, defaultDelayStdDev
	}
	if base < 0 {
		return ctx.Err()
	}
	r := c.Rand
	if r == nil {
		r = globalRand{}
	}
	d := base + time.Duration(r.NormFloat64()*float64(sd))
	if d < 0 {
		d = 0
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	return sleep(ctx, d)
}
