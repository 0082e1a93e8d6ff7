package search

import (
    "context"
    "encoding/json"
    "errors"
    "os"
    "strings"
)

// FileProvider loads candidates from a local JSON file for offline/testing use.
// The JSON file format is an array of objects:
// {"title": "...", "authors": ["..."] | "...", "venue": "...", "year": 2020, "url": "...", "citations": 3}.
type FileProvider struct {
    Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, _ Options) (Iterator, error) {
    if strings.TrimSpace(f.Path) == "" {
        return nil, errors.New("file provider path is empty")
    }
    b, err := os.ReadFile(f.Path)
    if err != nil {
        return nil, err
    }
    var raw []Candidate
    if err := json.Unmarshal(b, &raw); err != nil {
        return nil, err
    }
    q := strings.ToLower(strings.TrimSpace(query))
    out := make([]Candidate, 0, len(raw))
    for _, c := range raw {
        if c.Title == "" {
            continue
        }
        if q == "" || matchesAllTerms(c, q) {
            c.Source = f.Name()
            out = append(out, c)
        }
    }
    return NewSliceIterator(out), nil
}

// matchesAllTerms reports whether every whitespace-separated query term occurs
// in the title or venue.
func matchesAllTerms(c Candidate, q string) bool {
    hay := strings.ToLower(c.Title + " " + c.Venue)
    for _, term := range strings.Fields(q) {
        if !strings.Contains(hay, term) {
            return false
        }
    }
    return true
}
