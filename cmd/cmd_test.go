package cmd

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/filtering"
	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/proxy"
)

func TestPrepareFiltersDisablesUnconfigured(t *testing.T) {
	config := &Config{
		Criteria: map[string]any{"keywords": "go"},
	}

	steps, err := prepareFilters(nil, config, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	enabled := map[string]bool{}
	for _, s := range filtering.Describe(steps) {
		enabled[s.Name] = s.Enabled
	}

	want := map[string]bool{
		"criteria":        true,
		"companies":       true,
		"applied_history": false,
		"exclude_file":    false,
	}
	for name, on := range want {
		if enabled[name] != on {
			t.Fatalf("filter %s: expected enabled=%v, got %v", name, on, enabled[name])
		}
	}
}

func TestPrepareFiltersRejectsBadCriteria(t *testing.T) {
	config := &Config{Criteria: map[string]any{"unknown-predicate": true}}

	if _, err := prepareFilters(nil, config, nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown criteria key")
	}
}

func TestClassificationTable(t *testing.T) {
	result := form.Result{
		Required: []form.Field{{Identifier: "email", Kind: form.KindText, Purpose: "email", Confidence: 0.9, Required: true}},
		Unknown:  []form.Field{{Identifier: "q1", Kind: form.KindText, Purpose: "unknown"}},
	}

	data := classificationTable(result)
	if len(data) != 3 {
		t.Fatalf("expected header and two rows, got %d", len(data))
	}
	if data[1][0] != "required" || data[1][4] != "0.9" || data[1][5] != "true" {
		t.Fatalf("unexpected required row: %v", data[1])
	}
	if data[2][0] != "unknown" {
		t.Fatalf("unexpected unknown row: %v", data[2])
	}
}

func TestProxyTable(t *testing.T) {
	entries := []proxy.Proxy{
		{Host: "10.0.0.1", Port: 8080, Protocol: "http", Active: true, Latency: 1500 * time.Microsecond, LastUsed: time.Now()},
		{Host: "10.0.0.2", Port: 1080, Protocol: "socks5", FailCount: 3},
	}

	data := proxyTable(entries)
	if len(data) != 3 {
		t.Fatalf("expected header and two rows, got %d", len(data))
	}
	if data[1][4] != "1.5ms" {
		t.Fatalf("unexpected latency: %q", data[1][4])
	}
	if data[2][2] != "false" || data[2][3] != "3" || data[2][4] != "-" || data[2][5] != "-" {
		t.Fatalf("unexpected row for failed proxy: %v", data[2])
	}
}
