package tools

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"
)

// Searcher runs one scholarly search and returns the formatted result block.
type Searcher interface {
    Search(ctx context.Context, query string, n int) (string, error)
}

// AbstractResolver fetches a landing page and returns its abstract.
type AbstractResolver interface {
    Resolve(ctx context.Context, url string) string
}

// ScholarDeps bundles dependencies for the scholar tool surface.
type ScholarDeps struct {
    // Searcher backs scholar_search. Required.
    Searcher Searcher
    // Resolver backs fetch_abstract. Optional; the tool is omitted when nil.
    Resolver AbstractResolver
    // DefaultResults is advertised as the num_results default. Zero leaves
    // the number out of the description.
    DefaultResults int
}

const (
    // SearchToolName is the stable name clients call.
    SearchToolName   = "scholar_search"
    AbstractToolName = "fetch_abstract"
)

// NewScholarRegistry registers the scholar tool surface:
// - scholar_search
// - fetch_abstract (when a resolver is configured)
func NewScholarRegistry(deps ScholarDeps) (*Registry, error) {
    r := NewRegistry()

    if deps.Searcher == nil {
        return nil, fmt.Errorf("NewScholarRegistry: Searcher is nil")
    }
    numDesc := "Number of papers with abstracts to return. Omit for the server default."
    if deps.DefaultResults > 0 {
        numDesc = fmt.Sprintf("Number of papers with abstracts to return (default %d).", deps.DefaultResults)
    }
    numDescJSON, err := json.Marshal(numDesc)
    if err != nil {
        return nil, err
    }
    searchSchema := json.RawMessage(fmt.Sprintf(`{
        "type":"object",
        "properties":{
            "query":{"type":"string","description":"Search query. Chinese queries are translated to English first."},
            "num_results":{"type":"integer","description":%s}
        },
        "required":["query"]
    }`, numDescJSON))
    if err := r.Register(ToolDefinition{
        StableName:   SearchToolName,
        SemVer:       "v1.0.0",
        Description:  "Search scholarly literature and return papers with their abstracts",
        JSONSchema:   searchSchema,
        Capabilities: []string{"search", "fetch", "translate"},
        Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
            var in struct {
                Query      string `json:"query"`
                NumResults int    `json:"num_results"`
            }
            if err := json.Unmarshal(args, &in); err != nil {
                return nil, fmt.Errorf("invalid args: %w", err)
            }
            if strings.TrimSpace(in.Query) == "" {
                return nil, fmt.Errorf("missing query")
            }
            text, err := deps.Searcher.Search(ctx, in.Query, in.NumResults)
            if err != nil {
                return nil, err
            }
            return json.Marshal(text)
        },
    }); err != nil {
        return nil, err
    }

    if deps.Resolver == nil {
        return r, nil
    }
    abstractSchema := json.RawMessage(`{
        "type":"object",
        "properties":{ "url": {"type":"string","description":"Landing page URL of a paper."} },
        "required":["url"]
    }`)
    if err := r.Register(ToolDefinition{
        StableName:   AbstractToolName,
        SemVer:       "v1.0.0",
        Description:  "Fetch a paper landing page and return its abstract",
        JSONSchema:   abstractSchema,
        Capabilities: []string{"fetch", "extract"},
        Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
            var in struct {
                URL string `json:"url"`
            }
            if err := json.Unmarshal(args, &in); err != nil {
                return nil, fmt.Errorf("invalid args: %w", err)
            }
            u := strings.TrimSpace(in.URL)
            if u == "" {
                return nil, fmt.Errorf("missing url")
            }
            return json.Marshal(deps.Resolver.Resolve(ctx, u))
        },
    }); err != nil {
        return nil, err
    }
    return r, nil
}

// TextResult renders a handler result as plain text: JSON strings are
// unquoted, anything else is returned as its JSON encoding.
func TextResult(raw json.RawMessage) string {
    var s string
    if err := json.Unmarshal(raw, &s); err == nil {
        return s
    }
    return string(raw)
}
