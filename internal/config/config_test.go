package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if len(cfg.WSEndpoints) != 1 || cfg.WSEndpoints[0] != "ws://localhost:8080/ws" {
		t.Fatalf("WSEndpoints = %v", cfg.WSEndpoints)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("APIBaseURL = %s", cfg.APIBaseURL)
	}
	if cfg.PingInterval != 30*time.Second {
		t.Fatalf("PingInterval = %s", cfg.PingInterval)
	}
	if cfg.RejectedRetryDelay != time.Second {
		t.Fatalf("RejectedRetryDelay = %s", cfg.RejectedRetryDelay)
	}
	if cfg.ClosedRetryDelay != 5*time.Second {
		t.Fatalf("ClosedRetryDelay = %s", cfg.ClosedRetryDelay)
	}
	if cfg.HistoryPageSize != 20 {
		t.Fatalf("HistoryPageSize = %d", cfg.HistoryPageSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHARCHA_WS_ENDPOINTS", "ws://a/ws, ws://b/ws ,,")
	t.Setenv("CHARCHA_API_URL", "http://backend:9000")
	t.Setenv("CHARCHA_PING_INTERVAL", "45s")
	t.Setenv("CHARCHA_HISTORY_PAGE_SIZE", "50")

	cfg := Load()

	want := []string{"ws://a/ws", "ws://b/ws"}
	if len(cfg.WSEndpoints) != len(want) {
		t.Fatalf("WSEndpoints = %v, want %v", cfg.WSEndpoints, want)
	}
	for i, url := range want {
		if cfg.WSEndpoints[i] != url {
			t.Fatalf("WSEndpoints = %v, want %v", cfg.WSEndpoints, want)
		}
	}
	if cfg.APIBaseURL != "http://backend:9000" {
		t.Fatalf("APIBaseURL = %s", cfg.APIBaseURL)
	}
	if cfg.PingInterval != 45*time.Second {
		t.Fatalf("PingInterval = %s", cfg.PingInterval)
	}
	if cfg.HistoryPageSize != 50 {
		t.Fatalf("HistoryPageSize = %d", cfg.HistoryPageSize)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CHARCHA_PING_INTERVAL", "soon")
	t.Setenv("CHARCHA_HISTORY_PAGE_SIZE", "lots")

	cfg := Load()
	if cfg.PingInterval != 30*time.Second {
		t.Fatalf("PingInterval = %s, want default", cfg.PingInterval)
	}
	if cfg.HistoryPageSize != 20 {
		t.Fatalf("HistoryPageSize = %d, want default", cfg.HistoryPageSize)
	}
}
