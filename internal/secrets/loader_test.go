package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APPLY_PILOT_TEST_SECRET", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{Name: "key", File: keyFile, Value: "inline", Env: "APPLY_PILOT_TEST_SECRET"}, want: "from-file"},
		{name: "inline before env", src: Source{Value: " inline ", Env: "APPLY_PILOT_TEST_SECRET"}, want: "inline"},
		{name: "env fallback", src: Source{Env: "APPLY_PILOT_TEST_SECRET"}, want: "from-env"},
		{name: "empty file", src: Source{Name: "token", File: emptyFile}, wantErr: "token file"},
		{name: "missing file", src: Source{Name: "token", File: filepath.Join(dir, "absent")}, wantErr: "reading token"},
		{name: "unset env", src: Source{Name: "dsn", Env: "APPLY_PILOT_TEST_UNSET"}, wantErr: "$APPLY_PILOT_TEST_UNSET"},
		{name: "nothing", src: Source{}, wantErr: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	if _, ok, err := Optional(Source{Name: "token", Env: "APPLY_PILOT_TEST_UNSET"}); ok || err != nil {
		t.Fatalf("expected disabled secret, got ok=%v err=%v", ok, err)
	}

	got, ok, err := Optional(Source{Name: "token", Value: "abc"})
	if err != nil || !ok || got != "abc" {
		t.Fatalf("unexpected result %q ok=%v err=%v", got, ok, err)
	}

	if _, _, err := Optional(Source{Name: "token", File: filepath.Join(t.TempDir(), "absent")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
