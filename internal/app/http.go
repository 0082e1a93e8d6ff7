package app

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient returns the client shared by search providers, the translator
// and landing page fetches. Requests are sequential per search, so the idle
// pool stays small; per-request deadlines come from the callers' contexts and
// timeout is only a backstop.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Bodies are decoded by the fetch client so it can offer br as well.
		DisableCompression: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
