package tools

import (
    "context"
    "encoding/json"
    "errors"
    "strings"
    "testing"
)

type stubSearcher struct {
    gotQuery string
    gotN     int
    text     string
    err      error
}

func (s *stubSearcher) Search(_ context.Context, q string, n int) (string, error) {
    s.gotQuery, s.gotN = q, n
    return s.text, s.err
}

type stubResolver struct{ abstract string }

func (s stubResolver) Resolve(context.Context, string) string { return s.abstract }

func TestScholarSearch_ReturnsText(t *testing.T) {
    s := &stubSearcher{text: "=== Paper 1 ===\nTitle: X\n"}
    r, err := NewScholarRegistry(ScholarDeps{Searcher: s})
    if err != nil {
        t.Fatalf("NewScholarRegistry: %v", err)
    }
    raw, err := r.Invoke(context.Background(), SearchToolName, mustRaw(t, map[string]any{"query": "机器学习", "num_results": 3}))
    if err != nil {
        t.Fatalf("invoke: %v", err)
    }
    if got := TextResult(raw); got != s.text {
        t.Fatalf("got %q", got)
    }
    if s.gotQuery != "机器学习" || s.gotN != 3 {
        t.Fatalf("unexpected call: %q %d", s.gotQuery, s.gotN)
    }
    if _, ok := r.Get(AbstractToolName); ok {
        t.Fatalf("fetch_abstract must not be registered without a resolver")
    }
}

func TestScholarSearch_DefaultsAndErrors(t *testing.T) {
    s := &stubSearcher{text: "No relevant papers found"}
    r, err := NewScholarRegistry(ScholarDeps{Searcher: s})
    if err != nil {
        t.Fatal(err)
    }
    if _, err := r.Invoke(context.Background(), SearchToolName, json.RawMessage(`{"query":"x"}`)); err != nil {
        t.Fatal(err)
    }
    if s.gotN != 0 {
        t.Fatalf("absent num_results should pass 0 for the configured default, got %d", s.gotN)
    }
    if _, err := r.Invoke(context.Background(), SearchToolName, json.RawMessage(`{"query":"  "}`)); err == nil {
        t.Fatal("expected error for blank query")
    }
    if _, err := r.Invoke(context.Background(), SearchToolName, json.RawMessage(`{"num_results":2}`)); err == nil {
        t.Fatal("expected schema error for missing query")
    }
    s.err = errors.New("translate query: offline")
    if _, err := r.Invoke(context.Background(), SearchToolName, json.RawMessage(`{"query":"x"}`)); err == nil {
        t.Fatal("expected searcher error to surface")
    }
}

func TestFetchAbstract(t *testing.T) {
    r, err := NewScholarRegistry(ScholarDeps{Searcher: &stubSearcher{}, Resolver: stubResolver{abstract: "An abstract."}})
    if err != nil {
        t.Fatal(err)
    }
    raw, err := r.Invoke(context.Background(), AbstractToolName, json.RawMessage(`{"url":"https://example.com/p"}`))
    if err != nil {
        t.Fatal(err)
    }
    if TextResult(raw) != "An abstract." {
        t.Fatalf("got %s", raw)
    }
    if _, err := r.Invoke(context.Background(), AbstractToolName, json.RawMessage(`{"url":""}`)); err == nil {
        t.Fatal("expected error for empty url")
    }
}

func TestScholarSearch_DescribesConfiguredDefault(t *testing.T) {
    numDesc := func(deps ScholarDeps) string {
        r, err := NewScholarRegistry(deps)
        if err != nil {
            t.Fatal(err)
        }
        for _, spec := range r.Specs() {
            if spec.Name != SearchToolName {
                continue
            }
            var s struct {
                Properties map[string]struct {
                    Description string `json:"description"`
                } `json:"properties"`
            }
            if err := json.Unmarshal(spec.JSONSchema, &s); err != nil {
                t.Fatalf("schema: %v", err)
            }
            return s.Properties["num_results"].Description
        }
        t.Fatal("scholar_search not registered")
        return ""
    }
    if got := numDesc(ScholarDeps{Searcher: &stubSearcher{}, DefaultResults: 7}); !strings.Contains(got, "(default 7)") {
        t.Fatalf("configured default not advertised: %q", got)
    }
    if got := numDesc(ScholarDeps{Searcher: &stubSearcher{}}); strings.Contains(got, "default 10") {
        t.Fatalf("unconfigured default must not name a number: %q", got)
    }
}

func TestNewScholarRegistry_RequiresSearcher(t *testing.T) {
    if _, err := NewScholarRegistry(ScholarDeps{}); err == nil {
        t.Fatal("expected error")
    }
}

func TestTextResult_NonString(t *testing.T) {
    if got := TextResult(json.RawMessage(`{"a":1}`)); got != `{"a":1}` {
        t.Fatalf("got %q", got)
    }
}
