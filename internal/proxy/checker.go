package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 10 * time.Second

// DefaultTestURLs are fetched through a proxy to prove it works.
func DefaultTestURLs() []string {
	return []string{
		"https://api.ipify.org?format=json",
		"https://httpbin.org/ip",
	}
}

// Checker probes a proxy and reports the round-trip latency of the first successful request.
type Checker interface {
	Check(ctx context.Context, proxyURL *url.URL) (time.Duration, error)
}

// HTTPChecker issues GET requests through the proxy; any 200 response passes.
type HTTPChecker struct {
	TestURLs []string
	Timeout  time.Duration
}

func NewHTTPChecker(testURLs []string, timeout time.Duration) *HTTPChecker {
	if len(testURLs) == 0 {
		testURLs = DefaultTestURLs()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPChecker{TestURLs: testURLs, Timeout: timeout}
}

func (c *HTTPChecker) Check(ctx context.Context, proxyURL *url.URL) (time.Duration, error) {
	transport, err := Transport(proxyURL)
	if err != nil {
		return 0, err
	}
	defer transport.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	client := &http.Client{Transport: transport}

	var lastErr error
	for _, target := range c.TestURLs {
		started := time.Now()
		status, err := get(ctx, client, target)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusOK {
			return time.Since(started), nil
		}
		lastErr = fmt.Errorf("GET %s: unexpected status %d", target, status)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no test urls configured")
	}
	return 0, lastErr
}

func get(ctx context.Context, client *http.Client, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Transport routes requests through the proxy. SOCKS proxies are dialed with
// golang.org/x/net/proxy, HTTP(S) proxies use CONNECT via http.ProxyURL.
func Transport(proxyURL *url.URL) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	switch proxyURL.Scheme {
	case "socks5", "socks5h":
		dialer, err := xproxy.FromURL(proxyURL, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks dialer for %s: %w", proxyURL.Host, err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(xproxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return transport, nil
}
