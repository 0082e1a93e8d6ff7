package collect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/scholarsearch/internal/abstract"
	"github.com/hyperifyio/scholarsearch/internal/search"
)

// scriptedIterator yields the given steps in order, then Done.
type scriptedIterator struct {
	steps []step
	pos   int
}

type step struct {
	c   search.Candidate
	err error
}

func (s *scriptedIterator) Next(context.Context) (search.Candidate, error) {
	if s.pos >= len(s.steps) {
		return search.Candidate{}, search.Done
	}
	st := s.steps[s.pos]
	s.pos++
	return st.c, st.err
}

type stubProvider struct {
	it       search.Iterator
	err      error
	gotQuery string
	gotOpts  search.Options
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(_ context.Context, q string, opts search.Options) (search.Iterator, error) {
	p.gotQuery, p.gotOpts = q, opts
	return p.it, p.err
}

// mapResolver returns abstracts keyed by URL and records every call.
type mapResolver struct {
	abstracts map[string]string
	calls     []string
	panicOn   string
}

func (m *mapResolver) Resolve(_ context.Context, url string) string {
	m.calls = append(m.calls, url)
	if url == m.panicOn {
		panic("parser exploded")
	}
	if a, ok := m.abstracts[url]; ok {
		return a
	}
	return abstract.Unavailable
}

type fixedNorm float64

func (f fixedNorm) NormFloat64() float64 { return float64(f) }

type sleepRecorder struct{ durations []time.Duration }

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return nil
}

func candidates(n int) []step {
	out := make([]step, n)
	for i := range out {
		out[i] = step{c: search.Candidate{Title: fmt.Sprintf("p%d", i), URL: fmt.Sprintf("https://example.com/%d", i)}}
	}
	return out
}

func newCollector(it search.Iterator, res *mapResolver, sl *sleepRecorder) (*Collector, *stubProvider) {
	prov := &stubProvider{it: it}
	return &Collector{Provider: prov, Resolver: res, Rand: fixedNorm(0), Sleep: sl.sleep}, prov
}

func TestCollect_StopsAtNSuccesses(t *testing.T) {
	it := &scriptedIterator{steps: candidates(10)}
	res := &mapResolver{abstracts: map[string]string{
		"https://example.com/0": "a0", "https://example.com/1": "a1", "https://example.com/2": "a2",
	}}
	sl := &sleepRecorder{}
	c, prov := newCollector(it, res, sl)
	papers, err := c.Collect(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 2 || papers[0].Abstract != "a0" || papers[1].Title != "p1" {
		t.Fatalf("unexpected papers: %+v", papers)
	}
	if it.pos != 2 {
		t.Fatalf("iterator advanced past N successes: pos=%d", it.pos)
	}
	if len(sl.durations) != 1 {
		t.Fatalf("expected one pause between two attempts, got %d", len(sl.durations))
	}
	if prov.gotOpts.PageSize != 4 || prov.gotQuery != "q" {
		t.Fatalf("unexpected search call: %q %+v", prov.gotQuery, prov.gotOpts)
	}
}

func TestCollect_CapsAttemptsAtTwiceN(t *testing.T) {
	it := &scriptedIterator{steps: candidates(20)}
	res := &mapResolver{}
	sl := &sleepRecorder{}
	c, _ := newCollector(it, res, sl)
	papers, err := c.Collect(context.Background(), "q", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 0 {
		t.Fatalf("expected no papers, got %d", len(papers))
	}
	if it.pos != 6 || len(res.calls) != 6 {
		t.Fatalf("expected 6 attempts, pos=%d calls=%d", it.pos, len(res.calls))
	}
	if len(sl.durations) != 5 {
		t.Fatalf("expected 5 pauses, got %d", len(sl.durations))
	}
}

func TestCollect_ExhaustionStopsImmediately(t *testing.T) {
	it := &scriptedIterator{steps: candidates(1)}
	res := &mapResolver{abstracts: map[string]string{"https://example.com/0": "only"}}
	sl := &sleepRecorder{}
	c, _ := newCollector(it, res, sl)
	papers, err := c.Collect(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	if len(sl.durations) != 1 {
		t.Fatalf("expected a single pause before Done, got %d", len(sl.durations))
	}
}

func TestCollect_NoURLSkipsFetch(t *testing.T) {
	it := &scriptedIterator{steps: []step{
		{c: search.Candidate{Title: "no url"}},
		{c: search.Candidate{Title: "has url", URL: "https://example.com/x"}},
	}}
	res := &mapResolver{abstracts: map[string]string{"https://example.com/x": "abs"}}
	c, _ := newCollector(it, res, &sleepRecorder{})
	papers, err := c.Collect(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.calls) != 1 || res.calls[0] != "https://example.com/x" {
		t.Fatalf("resolver calls: %v", res.calls)
	}
	if len(papers) != 1 || papers[0].Title != "has url" {
		t.Fatalf("unexpected papers: %+v", papers)
	}
}

func TestCollect_IteratorErrorAndPanicAreSkipped(t *testing.T) {
	it := &scriptedIterator{steps: []step{
		{c: search.Candidate{Title: "boom", URL: "https://example.com/boom"}},
		{err: errors.New("bad record")},
		{c: search.Candidate{Title: "good", URL: "https://example.com/good"}},
	}}
	res := &mapResolver{abstracts: map[string]string{"https://example.com/good": "fine"}, panicOn: "https://example.com/boom"}
	c, _ := newCollector(it, res, &sleepRecorder{})
	papers, err := c.Collect(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 || papers[0].Title != "good" {
		t.Fatalf("unexpected papers: %+v", papers)
	}
}

func TestCollect_EmptyAbstractIsNotSuccess(t *testing.T) {
	it := &scriptedIterator{steps: candidates(1)}
	res := &mapResolver{abstracts: map[string]string{"https://example.com/0": ""}}
	c, _ := newCollector(it, res, &sleepRecorder{})
	papers, err := c.Collect(context.Background(), "q", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 0 {
		t.Fatalf("expected no papers, got %+v", papers)
	}
}

func TestCollect_DefaultN(t *testing.T) {
	it := &scriptedIterator{steps: candidates(30)}
	c, prov := newCollector(it, &mapResolver{}, &sleepRecorder{})
	if _, err := c.Collect(context.Background(), "q", 0); err != nil {
		t.Fatal(err)
	}
	if it.pos != 20 || prov.gotOpts.PageSize != 20 {
		t.Fatalf("expected default of 10 (20 attempts), pos=%d", it.pos)
	}
	it = &scriptedIterator{steps: candidates(30)}
	c, _ = newCollector(it, &mapResolver{}, &sleepRecorder{})
	c.DefaultN = 3
	if _, err := c.Collect(context.Background(), "q", -1); err != nil {
		t.Fatal(err)
	}
	if it.pos != 6 {
		t.Fatalf("expected configured default of 3, pos=%d", it.pos)
	}
}

func TestCollect_ProviderStartError(t *testing.T) {
	c := &Collector{Provider: &stubProvider{err: errors.New("down")}, Resolver: &mapResolver{}}
	if _, err := c.Collect(context.Background(), "q", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestCollect_FirstPullErrorIsReturned(t *testing.T) {
	it := &scriptedIterator{steps: append([]step{{err: errors.New("status 503")}}, candidates(3)...)}
	sl := &sleepRecorder{}
	c, _ := newCollector(it, &mapResolver{}, sl)
	papers, err := c.Collect(context.Background(), "q", 2)
	if err == nil || !strings.Contains(err.Error(), "stub search: status 503") {
		t.Fatalf("expected wrapped start error, got %v", err)
	}
	if papers != nil || len(sl.durations) != 0 || it.pos != 1 {
		t.Fatalf("collection must stop at once: papers=%v pauses=%d pos=%d", papers, len(sl.durations), it.pos)
	}
}

func TestCollect_UpstreamRateLimitIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sl := &sleepRecorder{}
	res := &mapResolver{}
	c := &Collector{
		Provider: &search.SearxNG{BaseURL: srv.URL, HTTPClient: srv.Client()},
		Resolver: res,
		Rand:     fixedNorm(0),
		Sleep:    sl.sleep,
	}
	papers, err := c.Collect(context.Background(), "machine learning", 5)
	if err == nil || !strings.Contains(err.Error(), "searxng search:") || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 to surface, got %v", err)
	}
	if len(papers) != 0 || len(sl.durations) != 0 || len(res.calls) != 0 {
		t.Fatalf("no pause or fetch expected: papers=%d pauses=%d calls=%d", len(papers), len(sl.durations), len(res.calls))
	}
}

func TestPause_JitterAndClamp(t *testing.T) {
	sl := &sleepRecorder{}
	c := &Collector{Rand: fixedNorm(1), Sleep: sl.sleep}
	if err := c.pause(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Rand = fixedNorm(-10)
	if err := c.pause(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sl.durations[0] != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s, got %v", sl.durations[0])
	}
	if sl.durations[1] != 0 {
		t.Fatalf("negative delay must clamp to zero, got %v", sl.durations[1])
	}
}

func TestCollect_CanceledDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	it := &scriptedIterator{steps: candidates(4)}
	res := &mapResolver{abstracts: map[string]string{"https://example.com/0": "a"}}
	c := &Collector{
		Provider: &stubProvider{it: it},
		Resolver: res,
		Rand:     fixedNorm(0),
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return Sleep(ctx, d)
		},
	}
	papers, err := c.Collect(ctx, "q", 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("papers gathered before cancel should be returned, got %d", len(papers))
	}
}

func TestSleep_ReturnsOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("sleep ignored context")
	}
}
