package extract

import (
    "bytes"
    "fmt"
    "strings"
    "unicode/utf8"

    "github.com/PuerkitoBio/goquery"
)

// Rule locates one abstract candidate in a landing page. Only the first
// element matching Selector is consulted. When Attr is empty the element's
// visible text is used, otherwise the named attribute's value.
type Rule struct {
    Name     string
    Selector string
    Attr     string
}

// DefaultRules are the publisher conventions checked on every landing page,
// in order. Order only matters for breaking ties between equally long results.
var DefaultRules = []Rule{
    {Name: "og_description", Selector: `meta[property="og:description"]`, Attr: "content"},
    {Name: "citation_abstract", Selector: `meta[name="citation_abstract"]`, Attr: "content"},
    {Name: "div_abstract", Selector: `div.abstract`},
    {Name: "div_abstract_text", Selector: `div.abstract-text`},
    {Name: "section_abstract_id", Selector: `section#abstract`},
    {Name: "section_article_information", Selector: `section[class="article-information abstract"]`},
    {Name: "p_abstract_text", Selector: `p.abstract-text`},
}

// Candidate is the trimmed value one rule produced.
type Candidate struct {
    Rule string
    Text string
}

// Candidates evaluates every rule against doc and returns the non-empty
// results in rule order. Rules that match nothing are skipped.
func Candidates(doc *goquery.Document, rules []Rule) []Candidate {
    var out []Candidate
    for _, r := range rules {
        text, err := evaluate(doc, r)
        if err != nil || text == "" {
            continue
        }
        out = append(out, Candidate{Rule: r.Name, Text: text})
    }
    return out
}

// evaluate returns the rule's trimmed value. An invalid selector matches nothing.
func evaluate(doc *goquery.Document, r Rule) (string, error) {
    sel := doc.Find(r.Selector).First()
    if sel.Length() == 0 {
        return "", nil
    }
    if r.Attr == "" {
        return strings.TrimSpace(sel.Text()), nil
    }
    v, ok := sel.Attr(r.Attr)
    if !ok {
        return "", fmt.Errorf("rule %s: missing attribute %q", r.Name, r.Attr)
    }
    return strings.TrimSpace(v), nil
}

// Longest returns the candidate with the most characters. Ties keep the
// earliest candidate. ok is false when cands is empty.
func Longest(cands []Candidate) (best Candidate, ok bool) {
    bestLen := -1
    for _, c := range cands {
        if n := utf8.RuneCountInString(c.Text); n > bestLen {
            best, bestLen, ok = c, n, true
        }
    }
    return best, ok
}

// Abstract parses an HTML page and returns the longest abstract candidate
// produced by rules. ok is false when the page cannot be parsed or no rule
// matched with a non-empty value.
func Abstract(body []byte, rules []Rule) (string, bool) {
    doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
    if err != nil {
        return "", false
    }
    best, ok := Longest(Candidates(doc, rules))
    if !ok {
        return "", false
    }
    return best.Text, true
}
