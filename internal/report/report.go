package report

import (
	"strconv"
	"strings"

	"github.com/hyperifyio/scholarsearch/internal/abstract"
	"github.com/hyperifyio/scholarsearch/internal/collect"
)

// Placeholders printed for fields a provider did not report.
const (
	NoResults       = "No relevant papers found"
	NoTitle         = "No title"
	NoAuthors       = "No author information"
	NoJournal       = "No journal information"
	NoYear          = "No publication year"
	NoURL           = "No URL"
	NoCitations     = "No citation"
	NoAbstract      = "No abstract information"
	WrapWidth       = 80
	abstractIndent  = "  "
	blockSeparation = "\n\n"
)

// Format renders papers as numbered text blocks joined by a blank line.
// An empty list yields NoResults.
func Format(papers []collect.Paper) string {
	if len(papers) == 0 {
		return NoResults
	}
	blocks := make([]string, 0, len(papers))
	for i, p := range papers {
		blocks = append(blocks, block(i+1, p))
	}
	return strings.Join(blocks, blockSeparation)
}

func block(n int, p collect.Paper) string {
	var b strings.Builder
	b.WriteString("=== Paper " + strconv.Itoa(n) + " ===\n")
	b.WriteString("Title: " + orDefault(p.Title, NoTitle) + "\n")
	b.WriteString("Authors: " + orDefault(strings.Join(p.Authors, ", "), NoAuthors) + "\n")
	b.WriteString("Journal: " + orDefault(p.Venue, NoJournal) + "\n")
	year := NoYear
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}
	b.WriteString("Publication Year: " + year + "\n")
	b.WriteString("URL: " + orDefault(p.URL, NoURL) + "\n")
	cites := NoCitations
	if p.Citations != nil {
		cites = strconv.Itoa(*p.Citations)
	}
	b.WriteString("Number of citations: " + cites + "\n")
	b.WriteString("Abstract:\n")
	for _, line := range AbstractLines(p.Abstract) {
		b.WriteString(abstractIndent + line + "\n")
	}
	return b.String()
}

// AbstractLines returns the abstract wrapped at WrapWidth, or a single
// placeholder line when there is nothing to wrap.
func AbstractLines(text string) []string {
	text = strings.TrimSpace(text)
	switch text {
	case "":
		return []string{NoAbstract}
	case NoAbstract, abstract.Unavailable:
		return []string{text}
	}
	return Wrap(text, WrapWidth)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
