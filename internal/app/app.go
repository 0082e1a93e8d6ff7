package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/scholarsearch/internal/abstract"
	"github.com/hyperifyio/scholarsearch/internal/cache"
	"github.com/hyperifyio/scholarsearch/internal/collect"
	"github.com/hyperifyio/scholarsearch/internal/extract"
	"github.com/hyperifyio/scholarsearch/internal/fetch"
	"github.com/hyperifyio/scholarsearch/internal/llm"
	"github.com/hyperifyio/scholarsearch/internal/mcpserver"
	"github.com/hyperifyio/scholarsearch/internal/scholar"
	"github.com/hyperifyio/scholarsearch/internal/search"
	"github.com/hyperifyio/scholarsearch/internal/tools"
	"github.com/hyperifyio/scholarsearch/internal/translate"
)

// App wires the configured provider, translator and fetcher into the search
// service and exposes it either once from the CLI or as MCP tools.
type App struct {
	cfg        Config
	httpClient *http.Client
	service    *scholar.Service
	registry   *tools.Registry
}

// ErrNoPapers is returned by RunOnce when no candidate yielded an abstract.
// The formatted output still carries the "no results" line.
var ErrNoPapers = errors.New("no papers with abstracts found")

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	hc := newHTTPClient(3 * cfg.FetchTimeout)

	provider, err := newProvider(cfg, hc)
	if err != nil {
		return nil, err
	}
	translator := newTranslator(cfg, hc)

	var fetcher abstract.Fetcher = &fetch.Client{
		HTTPClient: hc,
		UserAgents: cfg.UserAgents,
		Timeout:    cfg.FetchTimeout,
	}
	if cfg.CacheDir != "" {
		prepareCache(cfg)
		fetcher = &cache.Fetcher{Inner: fetcher, Cache: &cache.PageCache{
			Dir:         filepath.Join(cfg.CacheDir, "pages"),
			MaxAge:      cfg.CacheMaxAge,
			StrictPerms: cfg.CacheStrictPerms,
		}}
		translator = &cache.Translator{Inner: translator, Cache: &cache.TranslationCache{
			Dir:         filepath.Join(cfg.CacheDir, "translations"),
			MaxAge:      cfg.CacheMaxAge,
			StrictPerms: cfg.CacheStrictPerms,
		}}
	}
	resolver := &abstract.Resolver{Fetcher: fetcher, Extractor: extract.RuleExtractor{}}

	service := &scholar.Service{
		Normalizer: &translate.Normalizer{
			Translator: translator,
			Source:     cfg.TranslateSource,
			Target:     cfg.TranslateTarget,
			Fallback:   cfg.TranslateFallback,
		},
		Collector: &collect.Collector{
			Provider:    provider,
			Resolver:    resolver,
			DefaultN:    cfg.DefaultResults,
			DelayBase:   cfg.DelayBase,
			DelayStdDev: cfg.DelayStdDev,
		},
	}

	registry, err := tools.NewScholarRegistry(tools.ScholarDeps{
		Searcher:       service,
		Resolver:       resolver,
		DefaultResults: cfg.DefaultResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tool registry: %w", err)
	}

	log.Debug().
		Str("provider", provider.Name()).
		Str("translate", cfg.TranslateBackend).
		Dur("fetchTimeout", cfg.FetchTimeout).
		Msg("scholar search configured")

	return &App{
		cfg:        cfg,
		httpClient: hc,
		service:    service,
		registry:   registry,
	}, nil
}

// Registry returns the tool surface served over MCP.
func (a *App) Registry() *tools.Registry { return a.registry }

// Run executes a one-shot search when a query is configured and otherwise
// serves MCP until ctx ends.
func (a *App) Run(ctx context.Context, out io.Writer) error {
	if strings.TrimSpace(a.cfg.Query) != "" {
		return a.RunOnce(ctx, out)
	}
	return a.Serve(ctx)
}

// RunOnce searches for cfg.Query, writes the formatted block to out and,
// when configured, the same block to a PDF.
func (a *App) RunOnce(ctx context.Context, out io.Writer) error {
	res, err := a.service.Run(ctx, a.cfg.Query, a.cfg.NumResults)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, res.Text); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if a.cfg.OutputPDFPath != "" {
		if err := writeResultsPDF(res.Query, res.Text, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", a.cfg.OutputPDFPath).Msg("wrote PDF")
	}
	if len(res.Papers) == 0 {
		return ErrNoPapers
	}
	return nil
}

// Serve hosts the tool registry over the configured MCP transport.
func (a *App) Serve(ctx context.Context) error {
	return mcpserver.Serve(ctx, a.registry, mcpserver.Options{
		Name:      ServerName,
		Version:   BuildVersion,
		Transport: a.cfg.MCPTransport,
		Addr:      a.cfg.MCPAddr,
	})
}

// Close releases idle connections.
func (a *App) Close() {
	if a.httpClient != nil {
		a.httpClient.CloseIdleConnections()
	}
}

// prepareCache applies the clear and max-age controls before first use.
// Failures only cost cache hits, so they are logged and not returned.
func prepareCache(cfg Config) {
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		pages, _ := cache.PurgePagesByAge(filepath.Join(cfg.CacheDir, "pages"), cfg.CacheMaxAge)
		trs, _ := cache.PurgeTranslationsByAge(filepath.Join(cfg.CacheDir, "translations"), cfg.CacheMaxAge)
		if pages+trs > 0 {
			log.Debug().Int("pages", pages).Int("translations", trs).Msg("purged expired cache entries")
		}
	}
}

func newProvider(cfg Config, hc *http.Client) (search.Provider, error) {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	ua := apiUserAgent()
	switch cfg.Provider {
	case ProviderSemanticScholar:
		return &search.SemanticScholar{APIKey: cfg.SemanticScholarKey, HTTPClient: hc, UserAgent: ua, Limiter: limiter}, nil
	case ProviderOpenAlex:
		return &search.OpenAlex{Email: cfg.OpenAlexEmail, HTTPClient: hc, UserAgent: ua, Limiter: limiter}, nil
	case ProviderSearxNG:
		return &search.SearxNG{BaseURL: cfg.SearxURL, APIKey: cfg.SearxKey, HTTPClient: hc, UserAgent: ua, Limiter: limiter}, nil
	case ProviderFile:
		return &search.FileProvider{Path: cfg.FileSearchPath}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

func newTranslator(cfg Config, hc *http.Client) translate.Translator {
	switch cfg.TranslateBackend {
	case TranslateLLM:
		return &translate.LLM{Client: llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, hc), Model: cfg.LLMModel}
	case TranslateNone:
		return translate.Passthrough{}
	default:
		return &translate.Google{HTTPClient: hc, UserAgent: fetch.DefaultUserAgents[0]}
	}
}
