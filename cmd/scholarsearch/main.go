package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/scholarsearch/internal/app"
)

func main() {
	// Logging setup; stdout belongs to the MCP stdio transport and to results
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, showVersion, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, app.VersionString())
		return
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Exit code policy: 2 when a one-shot search found nothing, 1 otherwise.
		if errors.Is(err, app.ErrNoPapers) {
			log.Warn().Str("query", cfg.Query).Msg("no papers with abstracts found")
			os.Exit(2)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// parseConfig resolves settings with precedence: explicit flags, then
// environment, then the config file, then defaults.
func parseConfig(args []string, stderr io.Writer) (app.Config, bool, error) {
	cfg := app.DefaultConfig()
	fs := flag.NewFlagSet("scholarsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		envFiles    string
		showVersion bool
	)
	fs.StringVar(&configPath, "config", os.Getenv("SCHOLAR_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	fs.StringVar(&cfg.Query, "query", "", "Run a single search for this query and print the results instead of serving MCP")
	fs.IntVar(&cfg.NumResults, "n", 0, "Number of papers for -query (0 uses search.defaultResults)")
	fs.StringVar(&cfg.OutputPDFPath, "output.pdf", "", "Also write -query results to this PDF file")

	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Search provider: semanticscholar, openalex, searxng or file")
	fs.IntVar(&cfg.DefaultResults, "default.results", cfg.DefaultResults, "Papers returned when the caller does not ask for a number")
	fs.StringVar(&cfg.FileSearchPath, "search.file", "", "Path to JSON file for the offline file provider")
	fs.Float64Var(&cfg.RatePerSecond, "rate", cfg.RatePerSecond, "Provider API requests per second (0 disables pacing)")
	fs.StringVar(&cfg.SemanticScholarKey, "s2.key", "", "Semantic Scholar API key (optional)")
	fs.StringVar(&cfg.OpenAlexEmail, "openalex.email", "", "Contact email for the OpenAlex polite pool")
	fs.StringVar(&cfg.SearxURL, "searx.url", "", "SearxNG base URL")
	fs.StringVar(&cfg.SearxKey, "searx.key", "", "SearxNG API key (optional)")

	fs.StringVar(&cfg.TranslateBackend, "translate", cfg.TranslateBackend, "Query translation backend: google, llm or none")
	fs.StringVar(&cfg.TranslateSource, "translate.source", cfg.TranslateSource, "Source language tag for CJK queries")
	fs.StringVar(&cfg.TranslateTarget, "translate.target", cfg.TranslateTarget, "Target language tag")
	fs.BoolVar(&cfg.TranslateFallback, "translate.fallback", false, "Search with the original query when translation fails")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL for -translate=llm")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "Model name for -translate=llm")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")

	fs.DurationVar(&cfg.FetchTimeout, "fetch.timeout", cfg.FetchTimeout, "Timeout for each landing page request")
	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory for landing pages and translations (empty disables)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.DurationVar(&cfg.DelayBase, "delay.base", cfg.DelayBase, "Mean pause between candidates (negative disables)")
	fs.DurationVar(&cfg.DelayStdDev, "delay.stddev", cfg.DelayStdDev, "Standard deviation of the pause between candidates")

	fs.StringVar(&cfg.MCPTransport, "mcp.transport", cfg.MCPTransport, "MCP transport: stdio or http")
	fs.StringVar(&cfg.MCPAddr, "mcp.addr", cfg.MCPAddr, "Listen address for -mcp.transport=http")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if showVersion {
		return cfg, true, nil
	}

	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })

	if err := app.LoadEnvFiles(splitList(envFiles)...); err != nil {
		return cfg, false, fmt.Errorf("load env files: %w", err)
	}
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, false, fmt.Errorf("load config %s: %w", configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	for name, val := range explicit {
		if err := fs.Set(name, val); err != nil {
			return cfg, false, err
		}
	}
	return cfg, false, app.ValidateConfig(cfg)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func run(ctx context.Context, cfg app.Config, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx, stdout)
}
