package tools

import (
    "context"
    "encoding/json"
    "errors"
    "testing"
)

func mustRaw(t *testing.T, v any) json.RawMessage {
    t.Helper()
    b, err := json.Marshal(v)
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    return b
}

func echoHandler(t *testing.T) ToolHandler {
    return func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
        var a struct {
            Q     string `json:"q"`
            Limit int    `json:"limit"`
        }
        _ = json.Unmarshal(args, &a)
        return mustRaw(t, map[string]any{"echo": a.Q, "limit": a.Limit}), nil
    }
}

func TestRegistry_RegisterAndSpecsAndCatalog(t *testing.T) {
    r := NewRegistry()

    def := ToolDefinition{
        StableName:  "paper_lookup",
        SemVer:      "v1.0.0",
        Description: "look up papers",
        JSONSchema: mustRaw(t, map[string]any{
            "type": "object",
            "properties": map[string]any{
                "q":     map[string]any{"type": "string"},
                "limit": map[string]any{"type": "integer", "minimum": 1},
            },
            "required": []string{"q"},
        }),
        Capabilities: []string{"search", " ", "query"},
        Handler:      echoHandler(t),
    }

    if err := r.Register(def); err != nil {
        t.Fatalf("Register: %v", err)
    }

    specs := r.Specs()
    if len(specs) != 1 {
        t.Fatalf("expected 1 spec, got %d", len(specs))
    }
    if specs[0].Name != "paper_lookup" {
        t.Fatalf("unexpected spec name: %s", specs[0].Name)
    }
    if specs[0].Description != "look up papers (version v1.0.0)" {
        t.Fatalf("expected description to include version suffix, got: %q", specs[0].Description)
    }

    meta := r.Catalog()
    if len(meta) != 1 {
        t.Fatalf("expected 1 meta entry, got %d", len(meta))
    }
    if meta[0].StableName != "paper_lookup" || meta[0].SemVer != "v1.0.0" {
        t.Fatalf("unexpected meta: %+v", meta[0])
    }
    if len(meta[0].Capabilities) != 2 {
        t.Fatalf("blank capabilities should be dropped: %+v", meta[0].Capabilities)
    }

    res, err := r.Invoke(context.Background(), "paper_lookup", mustRaw(t, map[string]any{"q": "golang", "limit": 3}))
    if err != nil {
        t.Fatalf("invoke error: %v", err)
    }
    var out map[string]any
    _ = json.Unmarshal(res, &out)
    if out["echo"] != "golang" {
        t.Fatalf("unexpected handler output: %v", out)
    }
}

func TestRegistry_InvokeValidatesArgs(t *testing.T) {
    r := NewRegistry()
    if err := r.Register(ToolDefinition{
        StableName: "paper_lookup",
        SemVer:     "v1.0.0",
        JSONSchema: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"},"limit":{"type":"integer","minimum":1}},"required":["q"]}`),
        Handler:    echoHandler(t),
    }); err != nil {
        t.Fatal(err)
    }
    cases := map[string]string{
        "missing required": `{"limit":2}`,
        "wrong type":       `{"q":5}`,
        "not integer":      `{"q":"x","limit":1.5}`,
        "below minimum":    `{"q":"x","limit":0}`,
        "not json":         `{`,
        "empty":            ``,
    }
    for name, args := range cases {
        if _, err := r.Invoke(context.Background(), "paper_lookup", json.RawMessage(args)); err == nil {
            t.Errorf("%s: expected validation error", name)
        }
    }
    if _, err := r.Invoke(context.Background(), "nope", nil); !errors.Is(err, ErrUnknownTool) {
        t.Fatalf("expected ErrUnknownTool, got %v", err)
    }
}

func TestRegistry_RegisterValidation(t *testing.T) {
    r := NewRegistry()
    noop := func(context.Context, json.RawMessage) (json.RawMessage, error) { return nil, nil }

    bad := []ToolDefinition{
        {StableName: "Invalid-Name", SemVer: "v0.1.0", JSONSchema: mustRaw(t, map[string]any{"type": "object"}), Handler: noop},
        {StableName: "fetch_abstract", SemVer: "1.0", JSONSchema: mustRaw(t, map[string]any{"type": "object"}), Handler: noop},
        {StableName: "scholar_search", SemVer: "v0.1.0", JSONSchema: mustRaw(t, []any{"not", "an", "object"}), Handler: noop},
        {StableName: "scholar_search", SemVer: "v0.1.0", JSONSchema: mustRaw(t, map[string]any{"type": "object"})},
    }
    for i, def := range bad {
        if err := r.Register(def); err == nil {
            t.Fatalf("case %d: expected error", i)
        }
    }
}

func TestRegistry_DeterministicOrdering(t *testing.T) {
    r := NewRegistry()
    noop := func(context.Context, json.RawMessage) (json.RawMessage, error) { return nil, nil }
    for _, name := range []string{"scholar_search", "fetch_abstract", "list_sources"} {
        if err := r.Register(ToolDefinition{StableName: name, SemVer: "v1.0.0", JSONSchema: mustRaw(t, map[string]any{"type": "object"}), Handler: noop}); err != nil {
            t.Fatalf("register %s: %v", name, err)
        }
    }
    specs := r.Specs()
    want := []string{"fetch_abstract", "list_sources", "scholar_search"}
    for i, w := range want {
        if specs[i].Name != w {
            t.Fatalf("unexpected order at %d: got %s want %s", i, specs[i].Name, w)
        }
    }
}

func TestValidateAgainstSchema_MinimalSubset(t *testing.T) {
    schema := json.RawMessage(`{
        "type":"object",
        "properties":{
            "a":{"type":"string"},
            "b":{"type":"integer","maximum":10}
        },
        "required":["a"],
        "additionalProperties": false
    }`)
    if err := validateAgainstSchema(map[string]any{"a": "x", "b": 3.0}, schema); err != nil {
        t.Fatalf("unexpected validate error: %v", err)
    }
    if err := validateAgainstSchema(map[string]any{"b": 1.0}, schema); err == nil {
        t.Fatalf("expected error for missing required")
    }
    if err := validateAgainstSchema(map[string]any{"a": "x", "c": true}, schema); err == nil {
        t.Fatalf("expected error for additional property")
    }
    if err := validateAgainstSchema(map[string]any{"a": "x", "b": 11.0}, schema); err == nil {
        t.Fatalf("expected error for maximum")
    }
    arrSchema := json.RawMessage(`{"type":"array","items":{"type":"string"}}`)
    if err := validateAgainstSchema([]any{"x", "y"}, arrSchema); err != nil {
        t.Fatalf("unexpected array validate error: %v", err)
    }
    if err := validateAgainstSchema([]any{"x", 1.0}, arrSchema); err == nil {
        t.Fatalf("expected array item error")
    }
}

// Lightweight fuzz test for validateAgainstSchema to ensure it doesn't panic
// on random JSON values and simple schemas.
func FuzzValidateAgainstSchema_ObjectAndArray(f *testing.F) {
    f.Add(`{"type":"object","properties":{"a":{"type":"string"}},"required":["a"],"additionalProperties":false}`, `{"a":"x"}`)
    f.Add(`{"type":"array","items":{"type":"integer"}}`, `[1,2,3]`)
    f.Add(`{"type":"integer","minimum":1}`, `0`)
    f.Fuzz(func(t *testing.T, schemaJSON string, valueJSON string) {
        var val any
        _ = json.Unmarshal([]byte(valueJSON), &val)
        _ = validateAgainstSchema(val, json.RawMessage(schemaJSON))
    })
}
