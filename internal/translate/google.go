package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// googleBase is the public translate endpoint. Tests point it at an httptest server.
var googleBase = "https://translate.googleapis.com/translate_a/single"

// Google translates through the public Google Translate web endpoint.
type Google struct {
	HTTPClient *http.Client
	UserAgent  string
}

func (g *Google) Translate(ctx context.Context, text, source, target string) (Result, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", strings.ToLower(source))
	params.Set("tl", strings.ToLower(target))
	params.Set("dt", "t") // return translations
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleBase+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("google translate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("google translate status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("reading google translate response: %w", err)
	}
	out, err := parseGoogle(body)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: out}, nil
}

// parseGoogle joins the translated segments of a gtx response, which looks
// like [[["translated","original",...],...],null,"zh-CN",...].
func parseGoogle(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("parsing google translate response: %w", err)
	}
	if len(raw) == 0 {
		return "", ErrEmptyTranslation
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected google translate response shape")
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return b.String(), nil
}
