// Package httpproxy provides the process-wide HTTP client used for all
// outbound model traffic. Proxy settings are read once from HTTPS_PROXY,
// HTTP_PROXY and NO_PROXY (and their lowercase forms).
package httpproxy

import (
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/http/httpproxy"
)

var (
	once   sync.Once
	client *http.Client
)

// Client returns the shared proxy-aware HTTP client.
func Client() *http.Client {
	once.Do(func() {
		client = NewClient(httpproxy.FromEnvironment())
	})
	return client
}

// NewClient returns an HTTP client routing requests according to cfg. Most
// callers want Client instead.
func NewClient(cfg *httpproxy.Config) *http.Client {
	return &http.Client{Transport: NewTransport(cfg)}
}

// NewTransport returns a transport that dispatches through the proxy chosen
// by cfg for each request URL.
func NewTransport(cfg *httpproxy.Config) *http.Transport {
	proxyFunc := cfg.ProxyFunc()
	return &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
