package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forwardProxy answers every proxied request itself with the given status.
func forwardProxy(t *testing.T, status int, hits *atomic.Int32) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func TestHTTPCheckerThroughProxy(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	proxyURL := forwardProxy(t, http.StatusOK, &hits)

	checker := NewHTTPChecker([]string{"http://ip.example.test/"}, time.Second)
	latency, err := checker.Check(context.Background(), proxyURL)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, latency, time.Duration(0))
	assert.EqualValues(t, 1, hits.Load())
}

func TestHTTPCheckerTriesEveryURL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	proxyURL := forwardProxy(t, http.StatusBadGateway, &hits)

	checker := NewHTTPChecker([]string{"http://a.example.test/", "http://b.example.test/"}, time.Second)
	_, err := checker.Check(context.Background(), proxyURL)

	require.Error(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestHTTPCheckerUnreachableProxy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	proxyURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	checker := NewHTTPChecker([]string{"http://ip.example.test/"}, time.Second)
	_, err = checker.Check(context.Background(), proxyURL)
	require.Error(t, err)
}

func TestTransportSelectsDialer(t *testing.T) {
	t.Parallel()

	httpTransport, err := Transport(&url.URL{Scheme: "http", Host: "127.0.0.1:8080"})
	require.NoError(t, err)
	assert.NotNil(t, httpTransport.Proxy)

	socksTransport, err := Transport(&url.URL{Scheme: "socks5", Host: "127.0.0.1:1080", User: url.UserPassword("u", "p")})
	require.NoError(t, err)
	assert.Nil(t, socksTransport.Proxy)
	assert.NotNil(t, socksTransport.DialContext)
}

func TestNewHTTPCheckerDefaults(t *testing.T) {
	t.Parallel()

	checker := NewHTTPChecker(nil, 0)
	assert.Equal(t, DefaultTestURLs(), checker.TestURLs)
	assert.Equal(t, DefaultTimeout, checker.Timeout)
}
