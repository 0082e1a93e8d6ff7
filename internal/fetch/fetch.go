package fetch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout bounds a single landing page request.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps how much of a decoded body is read.
	DefaultMaxBodyBytes = 8 << 20

	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"
	acceptEncodingHeader = "gzip, deflate, br"
	acceptLanguageHeader = "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7"
)

// DefaultUserAgents is the desktop browser pool a request's User-Agent is drawn from.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
}

// Rand picks the User-Agent index. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Response is a fetched page. Body is decompressed and converted to UTF-8.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
	// URL is the final URL after redirects.
	URL string
}

// Client wraps http.Client with browser-like request headers, a per-request
// timeout, redirect and body limits, and transparent body decoding.
type Client struct {
	HTTPClient *http.Client
	// UserAgents is the pool to draw from. Empty means DefaultUserAgents.
	UserAgents []string
	// Rand chooses among UserAgents. Nil uses the global math/rand/v2 source.
	Rand Rand
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxBodyBytes caps the decoded body. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	// internal limiter initialized on first use when MaxConcurrent > 0
	limiter     chan struct{}
	limiterOnce sync.Once
}

// ErrBodyTooLarge is returned when a decoded body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

// UserAgent returns one entry of the pool chosen uniformly at random.
func (c *Client) UserAgent() string {
	pool := c.UserAgents
	if len(pool) == 0 {
		pool = DefaultUserAgents
	}
	r := c.Rand
	if r == nil {
		r = globalRand{}
	}
	return pool[r.IntN(len(pool))]
}

// Get issues a single GET. Any HTTP status is returned as a Response; only
// transport, scheme, and decoding failures are errors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	c.acquire()
	defer c.release()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	req.Header.Set("User-Agent", c.UserAgent())
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Encoding", acceptEncodingHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL.String(),
	}
	if resp.StatusCode != http.StatusOK {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return out, nil
	}
	body, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	dec, err := decodeContent(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", resp.Header.Get("Content-Encoding"), err)
	}
	defer dec.Close()
	raw, err := io.ReadAll(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, ErrBodyTooLarge
	}
	return toUTF8(raw, resp.Header.Get("Content-Type")), nil
}

// decodeContent wraps r according to a Content-Encoding header value.
// Stacked encodings are undone in reverse order.
func decodeContent(r io.Reader, encoding string) (io.ReadCloser, error) {
	rc := io.NopCloser(r)
	parts := strings.Split(encoding, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		switch strings.ToLower(strings.TrimSpace(parts[i])) {
		case "", "identity":
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(rc)
			if err != nil {
				return nil, err
			}
			rc = zr
		case "deflate":
			rc = deflateReader(rc)
		case "br":
			rc = io.NopCloser(brotli.NewReader(rc))
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", parts[i])
		}
	}
	return rc, nil
}

// deflateReader accepts both zlib-wrapped and raw deflate streams.
func deflateReader(r io.Reader) io.ReadCloser {
	br := bufio.NewReader(r)
	head, _ := br.Peek(2)
	if len(head) == 2 && head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		if zr, err := zlib.NewReader(br); err == nil {
			return zr
		}
	}
	return flate.NewReader(br)
}

// toUTF8 converts body from the charset declared in contentType or sniffed
// from the document. Undecodable input is returned unchanged.
func toUTF8(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
		// should not happen, but avoid blocking
	}
}
