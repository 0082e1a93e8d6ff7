// Command debugsearch lists raw provider candidates and, with -rules, shows
// what every abstract rule extracts from each landing page. With -tools it
// prints the MCP tool catalog instead.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/scholarsearch/internal/abstract"
	"github.com/hyperifyio/scholarsearch/internal/collect"
	"github.com/hyperifyio/scholarsearch/internal/extract"
	"github.com/hyperifyio/scholarsearch/internal/fetch"
	"github.com/hyperifyio/scholarsearch/internal/scholar"
	"github.com/hyperifyio/scholarsearch/internal/search"
	"github.com/hyperifyio/scholarsearch/internal/tools"
	"github.com/hyperifyio/scholarsearch/internal/translate"
)

func main() {
	provider := flag.String("provider", "semanticscholar", "semanticscholar, openalex, searxng or file")
	searxURL := flag.String("searx.url", os.Getenv("SEARX_URL"), "SearxNG base URL")
	file := flag.String("search.file", os.Getenv("SEARCH_FILE"), "JSON file for the file provider")
	n := flag.Int("n", 5, "Number of candidates to list")
	rules := flag.Bool("rules", false, "Fetch each landing page and print every rule's match")
	showTools := flag.Bool("tools", false, "Print the MCP tool catalog and exit")
	flag.Parse()

	q := "attention is all you need"
	if flag.NArg() > 0 {
		q = flag.Arg(0)
	}
	client := &http.Client{Timeout: 20 * time.Second}
	var prov search.Provider
	switch *provider {
	case "openalex":
		prov = &search.OpenAlex{HTTPClient: client, UserAgent: "debugsearch/1.0", Email: os.Getenv("OPENALEX_EMAIL")}
	case "searxng":
		base := *searxURL
		if base == "" {
			base = "http://localhost:8888"
		}
		prov = &search.SearxNG{BaseURL: base, HTTPClient: client, UserAgent: "debugsearch/1.0"}
	case "file":
		prov = &search.FileProvider{Path: *file}
	default:
		prov = &search.SemanticScholar{HTTPClient: client, UserAgent: "debugsearch/1.0", APIKey: os.Getenv("S2_API_KEY")}
	}

	if *showTools {
		reg, err := newRegistry(prov, *n)
		if err == nil {
			err = listTools(os.Stdout, reg)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "err:", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := list(ctx, os.Stdout, prov, q, *n, *rules); err != nil {
		fmt.Fprintln(os.Stderr, "err:", err)
		os.Exit(1)
	}
}

func list(ctx context.Context, w io.Writer, prov search.Provider, q string, n int, withRules bool) error {
	it, err := prov.Search(ctx, q, search.Options{PageSize: n})
	if err != nil {
		return err
	}
	fc := &fetch.Client{}
	for i := 1; i <= n; i++ {
		c, err := it.Next(ctx)
		if errors.Is(err, search.Done) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(w, "%d. error: %v\n", i, err)
			continue
		}
		fmt.Fprintf(w, "%d. %s (%d) - %s\n", i, c.Title, c.Year, c.URL)
		if withRules && c.URL != "" {
			showRules(ctx, w, fc, c.URL)
		}
	}
	return nil
}

func showRules(ctx context.Context, w io.Writer, fc *fetch.Client, url string) {
	resp, err := fc.Get(ctx, url)
	if err != nil {
		fmt.Fprintf(w, "   fetch error: %v\n", err)
		return
	}
	if resp.Status != http.StatusOK {
		fmt.Fprintf(w, "   status %d\n", resp.Status)
		return
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		fmt.Fprintf(w, "   parse error: %v\n", err)
		return
	}
	cands := extract.Candidates(doc, extract.DefaultRules)
	if len(cands) == 0 {
		fmt.Fprintln(w, "   no rule matched")
		return
	}
	best, _ := extract.Longest(cands)
	for _, c := range cands {
		mark := " "
		if c.Rule == best.Rule {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %-28s %5d runes  %.60q\n", mark, c.Rule, utf8.RuneCountInString(c.Text), c.Text)
	}
}

// newRegistry builds the same tool surface the server exposes, without
// translation, over prov.
func newRegistry(prov search.Provider, n int) (*tools.Registry, error) {
	resolver := &abstract.Resolver{Fetcher: &fetch.Client{}, Extractor: extract.RuleExtractor{}}
	svc := &scholar.Service{
		Normalizer: &translate.Normalizer{Translator: translate.Passthrough{}},
		Collector:  &collect.Collector{Provider: prov, Resolver: resolver, DefaultN: n},
	}
	return tools.NewScholarRegistry(tools.ScholarDeps{Searcher: svc, Resolver: resolver, DefaultResults: n})
}

func listTools(w io.Writer, reg *tools.Registry) error {
	for _, m := range reg.Catalog() {
		if _, err := fmt.Fprintf(w, "%s %s [%s]\n", m.StableName, m.SemVer, strings.Join(m.Capabilities, ",")); err != nil {
			return err
		}
	}
	return nil
}
