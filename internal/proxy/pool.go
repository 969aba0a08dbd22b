package proxy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxFails is the failure count at which a proxy is deactivated.
const DefaultMaxFails = 3

// Stats summarizes pool health.
type Stats struct {
	Total  int `json:"total_proxies"`
	Active int `json:"active_proxies"`
	Failed int `json:"failed_proxies"`
}

// Pool is the single owner of proxy records. One mutex guards fail counts,
// activity flags and the rotation cursor; probes run outside of it.
type Pool struct {
	mu       sync.Mutex
	proxies  []*Proxy
	cursor   int
	maxFails int
	checker  Checker
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Pool)

func WithMaxFails(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxFails = n
		}
	}
}

func WithChecker(c Checker) Option {
	return func(p *Pool) {
		if c != nil {
			p.checker = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool builds a pool from validated entries. See Validate and LoadFile.
func NewPool(entries []Proxy, opts ...Option) *Pool {
	p := &Pool{
		maxFails: DefaultMaxFails,
		checker:  NewHTTPChecker(nil, DefaultTimeout),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.proxies = make([]*Proxy, 0, len(entries))
	for _, entry := range entries {
		entry := entry
		p.proxies = append(p.proxies, &entry)
	}

	p.logger.Info("proxy pool loaded", zap.Int("proxies", len(p.proxies)))
	return p
}

// Load reads a proxy file and builds a pool from it.
func Load(path string, opts ...Option) (*Pool, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewPool(entries, opts...), nil
}

// GetWorkingProxy walks the rotation from the cursor, skipping proxies that
// reached the failure threshold, and returns the first one that passes a
// probe. The cursor always moves past every candidate tried, so consecutive
// calls rotate strictly.
func (p *Pool) GetWorkingProxy(ctx context.Context) (Proxy, error) {
	p.mu.Lock()
	total := len(p.proxies)
	p.mu.Unlock()

	for attempt := 0; attempt < total; attempt++ {
		if err := ctx.Err(); err != nil {
			return Proxy{}, err
		}

		candidate, ok := p.next()
		if !ok {
			continue
		}

		latency, err := p.checker.Check(ctx, candidate.URL())
		p.record(candidate.Key(), latency, err)
		if err != nil {
			p.logger.Debug("proxy probe failed",
				zap.String("proxy", candidate.String()),
				zap.Error(err),
			)
			continue
		}

		snapshot, _ := p.snapshot(candidate.Key())
		return snapshot, nil
	}

	p.logger.Error("no working proxies available", zap.Int("proxies", total))
	return Proxy{}, ErrNoWorkingProxy
}

// next returns the proxy at the cursor and advances it. ok is false when the
// proxy has reached the failure threshold.
func (p *Pool) next() (Proxy, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return Proxy{}, false
	}

	current := p.proxies[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.proxies)

	if current.FailCount >= p.maxFails {
		return Proxy{}, false
	}
	return *current, true
}

// record stores a probe outcome. A successful probe resets the fail count; a
// failed one increments it without deactivating the proxy.
func (p *Pool) record(key string, latency time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	proxy := p.find(key)
	if proxy == nil {
		return
	}
	if err != nil {
		proxy.FailCount++
		return
	}
	proxy.FailCount = 0
	proxy.LastUsed = p.now()
	proxy.Latency = latency
}

// MarkFailed records a failure reported by a caller. At the threshold the
// proxy is deactivated until a refresh succeeds for it.
func (p *Pool) MarkFailed(proxy Proxy) {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := p.find(proxy.Key())
	if live == nil {
		return
	}

	live.FailCount++
	if live.FailCount >= p.maxFails && live.Active {
		live.Active = false
		p.logger.Warn("proxy marked inactive",
			zap.String("proxy", live.String()),
			zap.Int("failures", live.FailCount),
		)
	}
}

// Refresh probes every proxy concurrently and reports working and total counts.
// A passing proxy is reactivated with a zero fail count.
func (p *Pool) Refresh(ctx context.Context) (int, int) {
	p.logger.Info("refreshing proxy pool")

	snapshots := p.Proxies()
	results := make([]error, len(snapshots))

	var wg sync.WaitGroup
	for i, proxy := range snapshots {
		wg.Add(1)
		go func(i int, proxy Proxy) {
			defer wg.Done()
			latency, err := p.checker.Check(ctx, proxy.URL())
			results[i] = err
			p.record(proxy.Key(), latency, err)
		}(i, proxy)
	}
	wg.Wait()

	working := 0
	p.mu.Lock()
	for i, err := range results {
		if err != nil {
			continue
		}
		working++
		if live := p.find(snapshots[i].Key()); live != nil {
			live.Active = true
		}
	}
	p.mu.Unlock()

	p.logger.Info("proxy refresh complete",
		zap.Int("working", working),
		zap.Int("total", len(snapshots)),
	)
	return working, len(snapshots)
}

// Stats counts total, active and deactivated proxies.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{Total: len(p.proxies)}
	for _, proxy := range p.proxies {
		if proxy.Active {
			stats.Active++
		}
	}
	stats.Failed = stats.Total - stats.Active
	return stats
}

// Proxies returns snapshots of every record in rotation order.
func (p *Pool) Proxies() []Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Proxy, 0, len(p.proxies))
	for _, proxy := range p.proxies {
		out = append(out, *proxy)
	}
	return out
}

func (p *Pool) snapshot(key string) (Proxy, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if proxy := p.find(key); proxy != nil {
		return *proxy, true
	}
	return Proxy{}, false
}

// find must be called with mu held.
func (p *Pool) find(key string) *Proxy {
	for _, proxy := range p.proxies {
		if proxy.Key() == key {
			return proxy
		}
	}
	return nil
}
