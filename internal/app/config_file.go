package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"

    "github.com/hyperifyio/scholarsearch/internal/mcpserver"
    "github.com/hyperifyio/scholarsearch/internal/translate"
)

// FileConfig represents the single-file configuration schema.
// Durations are strings in time.ParseDuration form so YAML and JSON read alike.
type FileConfig struct {
    Search struct {
        Provider       string  `yaml:"provider" json:"provider"`
        DefaultResults int     `yaml:"defaultResults" json:"defaultResults"`
        File           string  `yaml:"file" json:"file"`
        RatePerSecond  float64 `yaml:"ratePerSecond" json:"ratePerSecond"`
    } `yaml:"search" json:"search"`

    SemanticScholar struct {
        Key string `yaml:"key" json:"key"`
    } `yaml:"semanticScholar" json:"semanticScholar"`

    OpenAlex struct {
        Email string `yaml:"email" json:"email"`
    } `yaml:"openAlex" json:"openAlex"`

    Searx struct {
        URL string `yaml:"url" json:"url"`
        Key string `yaml:"key" json:"key"`
    } `yaml:"searx" json:"searx"`

    Translate struct {
        Backend  string `yaml:"backend" json:"backend"`
        Source   string `yaml:"source" json:"source"`
        Target   string `yaml:"target" json:"target"`
        Fallback bool   `yaml:"fallback" json:"fallback"`
    } `yaml:"translate" json:"translate"`

    LLM struct {
        BaseURL string `yaml:"base" json:"base"`
        Model   string `yaml:"model" json:"model"`
        APIKey  string `yaml:"key" json:"key"`
    } `yaml:"llm" json:"llm"`

    Fetch struct {
        Timeout    string   `yaml:"timeout" json:"timeout"`
        UserAgents []string `yaml:"userAgents" json:"userAgents"`
    } `yaml:"fetch" json:"fetch"`

    Cache struct {
        Dir         string `yaml:"dir" json:"dir"`
        MaxAge      string `yaml:"maxAge" json:"maxAge"`
        Clear       bool   `yaml:"clear" json:"clear"`
        StrictPerms bool   `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    Delay struct {
        Base   string `yaml:"base" json:"base"`
        StdDev string `yaml:"stddev" json:"stddev"`
    } `yaml:"delay" json:"delay"`

    MCP struct {
        Transport string `yaml:"transport" json:"transport"`
        Addr      string `yaml:"addr" json:"addr"`
    } `yaml:"mcp" json:"mcp"`

    OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
    Verbose   bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    for _, d := range []struct{ key, val string }{
        {"fetch.timeout", fc.Fetch.Timeout},
        {"cache.maxAge", fc.Cache.MaxAge},
        {"delay.base", fc.Delay.Base},
        {"delay.stddev", fc.Delay.StdDev},
    } {
        if _, err := parseDuration(d.val); err != nil {
            return fc, fmt.Errorf("%s: %w", d.key, err)
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag default. Flags should already have
// been parsed; explicit flags win over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }
    def := DefaultConfig()

    if (cfg.Provider == "" || cfg.Provider == def.Provider) && fc.Search.Provider != "" { cfg.Provider = strings.ToLower(fc.Search.Provider) }
    if (cfg.DefaultResults == 0 || cfg.DefaultResults == def.DefaultResults) && fc.Search.DefaultResults > 0 { cfg.DefaultResults = fc.Search.DefaultResults }
    if cfg.FileSearchPath == "" && fc.Search.File != "" { cfg.FileSearchPath = fc.Search.File }
    if (cfg.RatePerSecond == 0 || cfg.RatePerSecond == def.RatePerSecond) && fc.Search.RatePerSecond > 0 { cfg.RatePerSecond = fc.Search.RatePerSecond }

    if cfg.SemanticScholarKey == "" && fc.SemanticScholar.Key != "" { cfg.SemanticScholarKey = fc.SemanticScholar.Key }
    if cfg.OpenAlexEmail == "" && fc.OpenAlex.Email != "" { cfg.OpenAlexEmail = fc.OpenAlex.Email }
    if cfg.SearxURL == "" && fc.Searx.URL != "" { cfg.SearxURL = fc.Searx.URL }
    if cfg.SearxKey == "" && fc.Searx.Key != "" { cfg.SearxKey = fc.Searx.Key }

    if (cfg.TranslateBackend == "" || cfg.TranslateBackend == def.TranslateBackend) && fc.Translate.Backend != "" { cfg.TranslateBackend = strings.ToLower(fc.Translate.Backend) }
    if (cfg.TranslateSource == "" || cfg.TranslateSource == def.TranslateSource) && fc.Translate.Source != "" { cfg.TranslateSource = fc.Translate.Source }
    if (cfg.TranslateTarget == "" || cfg.TranslateTarget == def.TranslateTarget) && fc.Translate.Target != "" { cfg.TranslateTarget = fc.Translate.Target }
    if !cfg.TranslateFallback && fc.Translate.Fallback { cfg.TranslateFallback = true }

    if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if cfg.LLMModel == "" && fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
    if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }

    if d, _ := parseDuration(fc.Fetch.Timeout); d > 0 && (cfg.FetchTimeout == 0 || cfg.FetchTimeout == def.FetchTimeout) { cfg.FetchTimeout = d }
    if len(cfg.UserAgents) == 0 && len(fc.Fetch.UserAgents) > 0 { cfg.UserAgents = append([]string{}, fc.Fetch.UserAgents...) }

    if cfg.CacheDir == "" && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if d, _ := parseDuration(fc.Cache.MaxAge); d > 0 && cfg.CacheMaxAge == 0 { cfg.CacheMaxAge = d }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

    if d, _ := parseDuration(fc.Delay.Base); d != 0 && (cfg.DelayBase == 0 || cfg.DelayBase == def.DelayBase) { cfg.DelayBase = d }
    if d, _ := parseDuration(fc.Delay.StdDev); d > 0 && (cfg.DelayStdDev == 0 || cfg.DelayStdDev == def.DelayStdDev) { cfg.DelayStdDev = d }

    if (cfg.MCPTransport == "" || cfg.MCPTransport == def.MCPTransport) && fc.MCP.Transport != "" { cfg.MCPTransport = strings.ToLower(fc.MCP.Transport) }
    if (cfg.MCPAddr == "" || cfg.MCPAddr == def.MCPAddr) && fc.MCP.Addr != "" { cfg.MCPAddr = fc.MCP.Addr }

    if cfg.OutputPDFPath == "" && fc.OutputPDF != "" { cfg.OutputPDFPath = fc.OutputPDF }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig rejects settings New cannot build a working service from.
func ValidateConfig(cfg Config) error {
    switch cfg.Provider {
    case ProviderSemanticScholar, ProviderOpenAlex:
    case ProviderSearxNG:
        if trim(cfg.SearxURL) == "" {
            return errors.New("config: searx.url is required for the searxng provider (or set SEARX_URL)")
        }
    case ProviderFile:
        if trim(cfg.FileSearchPath) == "" {
            return errors.New("config: search.file is required for the file provider")
        }
    default:
        return fmt.Errorf("config: unknown search provider %q", cfg.Provider)
    }

    switch cfg.TranslateBackend {
    case TranslateGoogle, TranslateNone:
    case TranslateLLM:
        if trim(cfg.LLMModel) == "" {
            return errors.New("config: llm.model is required for the llm translation backend (or set LLM_MODEL)")
        }
    default:
        return fmt.Errorf("config: unknown translation backend %q", cfg.TranslateBackend)
    }
    for key, tag := range map[string]string{"translate.source": cfg.TranslateSource, "translate.target": cfg.TranslateTarget} {
        if trim(tag) == "" {
            continue
        }
        if err := translate.ValidateTag(tag); err != nil {
            return fmt.Errorf("config: %s: %w", key, err)
        }
    }

    if cfg.DefaultResults < 0 || cfg.NumResults < 0 {
        return errors.New("config: negative result counts are not allowed")
    }
    if cfg.RatePerSecond < 0 || cfg.FetchTimeout < 0 || cfg.DelayStdDev < 0 || cfg.CacheMaxAge < 0 {
        return errors.New("config: negative rates and durations are not allowed")
    }

    switch cfg.MCPTransport {
    case "", mcpserver.TransportStdio:
    case mcpserver.TransportHTTP:
        if trim(cfg.MCPAddr) == "" {
            return errors.New("config: mcp.addr is required for the http transport")
        }
    default:
        return fmt.Errorf("config: unknown mcp transport %q", cfg.MCPTransport)
    }
    return nil
}

func parseDuration(s string) (time.Duration, error) {
    if trim(s) == "" {
        return 0, nil
    }
    return time.ParseDuration(trim(s))
}

func trim(s string) string { return strings.TrimSpace(s) }
