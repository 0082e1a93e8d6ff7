package app

import (
    "time"

    "github.com/hyperifyio/scholarsearch/internal/collect"
    "github.com/hyperifyio/scholarsearch/internal/fetch"
    "github.com/hyperifyio/scholarsearch/internal/mcpserver"
)

// Search providers selectable through Config.Provider.
const (
    ProviderSemanticScholar = "semanticscholar"
    ProviderOpenAlex        = "openalex"
    ProviderSearxNG         = "searxng"
    ProviderFile            = "file"
)

// Translation backends selectable through Config.TranslateBackend.
const (
    TranslateGoogle = "google"
    TranslateLLM    = "llm"
    TranslateNone   = "none"
)

// Defaults shared by flag parsing and file config overlay.
const (
    DefaultProvider         = ProviderSemanticScholar
    DefaultTranslateBackend = TranslateGoogle
    DefaultTranslateSource  = "zh-CN"
    DefaultTranslateTarget  = "en"
    DefaultRatePerSecond    = 1.0
    DefaultMCPAddr          = ":8080"
    DefaultDelayBase        = 2 * time.Second
    DefaultDelayStdDev      = 500 * time.Millisecond
)

type Config struct {
    // Search provider
    Provider           string
    DefaultResults     int
    FileSearchPath     string
    RatePerSecond      float64
    SemanticScholarKey string
    OpenAlexEmail      string
    SearxURL           string
    SearxKey           string

    // Query translation
    TranslateBackend  string
    TranslateSource   string
    TranslateTarget   string
    TranslateFallback bool

    // OpenAI-compatible model, used by the llm translation backend
    LLMBaseURL string
    LLMModel   string
    LLMAPIKey  string

    // Landing page fetching
    FetchTimeout time.Duration
    UserAgents   []string

    // On-disk cache of landing pages and translations; empty Dir disables it
    CacheDir         string
    CacheMaxAge      time.Duration
    CacheClear       bool
    CacheStrictPerms bool

    // Pause between attempts; a negative base disables pacing
    DelayBase   time.Duration
    DelayStdDev time.Duration

    // MCP host
    MCPTransport string
    MCPAddr      string

    // One-shot mode: when Query is set the CLI runs a single search and exits
    Query         string
    NumResults    int
    OutputPDFPath string

    Verbose bool
}

// DefaultConfig returns the values flags start from.
func DefaultConfig() Config {
    return Config{
        Provider:         DefaultProvider,
        DefaultResults:   collect.DefaultResults,
        RatePerSecond:    DefaultRatePerSecond,
        TranslateBackend: DefaultTranslateBackend,
        TranslateSource:  DefaultTranslateSource,
        TranslateTarget:  DefaultTranslateTarget,
        FetchTimeout:     fetch.DefaultTimeout,
        DelayBase:        DefaultDelayBase,
        DelayStdDev:      DefaultDelayStdDev,
        MCPTransport:     mcpserver.TransportStdio,
        MCPAddr:          DefaultMCPAddr,
    }
}
