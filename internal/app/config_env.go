package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, keys ...string) {
        if *dst != "" { return }
        if v := firstEnv(keys...); v != "" { *dst = v }
    }
    setString(&cfg.Provider, "SCHOLAR_PROVIDER")
    setString(&cfg.FileSearchPath, "SCHOLAR_SEARCH_FILE", "SEARCH_FILE")
    setString(&cfg.SemanticScholarKey, "S2_API_KEY", "SEMANTIC_SCHOLAR_API_KEY")
    setString(&cfg.OpenAlexEmail, "OPENALEX_EMAIL")
    // Support both SEARX_URL and SEARXNG_URL; prefer SEARX_URL if set
    setString(&cfg.SearxURL, "SEARX_URL", "SEARXNG_URL")
    setString(&cfg.SearxKey, "SEARX_KEY", "SEARXNG_KEY")
    setString(&cfg.TranslateBackend, "SCHOLAR_TRANSLATE")
    setString(&cfg.TranslateSource, "SCHOLAR_TRANSLATE_SOURCE")
    setString(&cfg.TranslateTarget, "SCHOLAR_TRANSLATE_TARGET")
    setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
    setString(&cfg.LLMModel, "LLM_MODEL")
    setString(&cfg.LLMAPIKey, "LLM_API_KEY")
    setString(&cfg.CacheDir, "CACHE_DIR")
    setString(&cfg.MCPTransport, "SCHOLAR_MCP_TRANSPORT")
    setString(&cfg.MCPAddr, "SCHOLAR_MCP_ADDR")

    if cfg.DefaultResults == 0 {
        if n, ok := envInt("SCHOLAR_DEFAULT_RESULTS"); ok && n > 0 { cfg.DefaultResults = n }
    }
    if cfg.RatePerSecond == 0 {
        if f, ok := envFloat("SCHOLAR_RATE"); ok && f > 0 { cfg.RatePerSecond = f }
    }
    if cfg.FetchTimeout == 0 {
        if d, ok := envDuration("SCHOLAR_FETCH_TIMEOUT"); ok && d > 0 { cfg.FetchTimeout = d }
    }
    if cfg.CacheMaxAge == 0 {
        if d, ok := envDuration("CACHE_MAX_AGE"); ok && d > 0 { cfg.CacheMaxAge = d }
    }
    if len(cfg.UserAgents) == 0 {
        cfg.UserAgents = envList("SCHOLAR_USER_AGENTS")
    }

    // Booleans
    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.TranslateFallback, "SCHOLAR_TRANSLATE_FALLBACK")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This is used to let env take
// precedence over values coming from a config file while still allowing flags
// to remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("SCHOLAR_PROVIDER"); v != "" { cfg.Provider = strings.ToLower(v) }
    if v := firstEnv("SCHOLAR_SEARCH_FILE", "SEARCH_FILE"); v != "" { cfg.FileSearchPath = v }
    if v := firstEnv("S2_API_KEY", "SEMANTIC_SCHOLAR_API_KEY"); v != "" { cfg.SemanticScholarKey = v }
    if v := os.Getenv("OPENALEX_EMAIL"); v != "" { cfg.OpenAlexEmail = v }

    if v := os.Getenv("SEARX_URL"); v != "" { cfg.SearxURL = v }
    if v := os.Getenv("SEARXNG_URL"); v != "" { cfg.SearxURL = v }
    if v := os.Getenv("SEARX_KEY"); v != "" { cfg.SearxKey = v }
    if v := os.Getenv("SEARXNG_KEY"); v != "" { cfg.SearxKey = v }

    if v := os.Getenv("SCHOLAR_TRANSLATE"); v != "" { cfg.TranslateBackend = strings.ToLower(v) }
    if v := os.Getenv("SCHOLAR_TRANSLATE_SOURCE"); v != "" { cfg.TranslateSource = v }
    if v := os.Getenv("SCHOLAR_TRANSLATE_TARGET"); v != "" { cfg.TranslateTarget = v }

    if v := os.Getenv("LLM_BASE_URL"); v != "" { cfg.LLMBaseURL = v }
    if v := os.Getenv("LLM_MODEL"); v != "" { cfg.LLMModel = v }
    if v := os.Getenv("LLM_API_KEY"); v != "" { cfg.LLMAPIKey = v }

    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }
    if d, ok := envDuration("CACHE_MAX_AGE"); ok && d > 0 { cfg.CacheMaxAge = d }

    if v := os.Getenv("SCHOLAR_MCP_TRANSPORT"); v != "" { cfg.MCPTransport = strings.ToLower(v) }
    if v := os.Getenv("SCHOLAR_MCP_ADDR"); v != "" { cfg.MCPAddr = v }

    if n, ok := envInt("SCHOLAR_DEFAULT_RESULTS"); ok && n > 0 { cfg.DefaultResults = n }
    if f, ok := envFloat("SCHOLAR_RATE"); ok && f > 0 { cfg.RatePerSecond = f }
    if d, ok := envDuration("SCHOLAR_FETCH_TIMEOUT"); ok && d > 0 { cfg.FetchTimeout = d }
    if l := envList("SCHOLAR_USER_AGENTS"); len(l) > 0 { cfg.UserAgents = l }

    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, envKey string) {
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            switch s {
            case "1", "true", "yes", "on":
                *dst = true
            case "0", "false", "no", "off":
                *dst = false
            }
        }
    }
    setBool(&cfg.TranslateFallback, "SCHOLAR_TRANSLATE_FALLBACK")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.Verbose, "VERBOSE")
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := strings.TrimSpace(os.Getenv(k)); v != "" {
            return v
        }
    }
    return ""
}

func envInt(key string) (int, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    n, err := strconv.Atoi(s)
    return n, err == nil
}

func envFloat(key string) (float64, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    f, err := strconv.ParseFloat(s, 64)
    return f, err == nil
}

func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    d, err := time.ParseDuration(s)
    return d, err == nil
}

// envList splits a '|' separated value; User-Agent strings contain commas.
func envList(key string) []string {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return nil }
    var out []string
    for _, p := range strings.Split(s, "|") {
        if v := strings.TrimSpace(p); v != "" {
            out = append(out, v)
        }
    }
    return out
}
