package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// envconfig distinguishes unset from set-but-empty; defaults only apply
	// when the variable is absent.
	for _, key := range []string{"PORT", "TIMEZONE", "OUTBOX_BUFFER", "REPORT_CACHE_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.OutboxBuffer != 256 {
		t.Fatalf("expected default outbox buffer 256, got %d", cfg.OutboxBuffer)
	}
	if cfg.ReportCacheTTL != 30*time.Second {
		t.Fatalf("expected default cache ttl 30s, got %s", cfg.ReportCacheTTL)
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "America/Sao_Paulo"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Fatalf("unexpected location %s", loc)
	}

	cfg.Timezone = "Local"
	loc, err = cfg.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("expected local zone, got %v (%v)", loc, err)
	}

	cfg.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
