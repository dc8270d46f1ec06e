package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "SESSION_TTL_HOURS", "ENV_ACTION_CODEC", "ENV_STATE_CODEC", "ENV_COMMIT_POLICY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "5175" {
		t.Errorf("Port = %q, want 5175", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.Env.ActionCodec != "mixed-radix" || cfg.Env.StateCodec != "unpacked" || cfg.Env.Policy != "all-or-nothing" {
		t.Errorf("Env = %+v, want defaults", cfg.Env)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("ENV_ACTION_CODEC", "cross-product")
	t.Setenv("ENV_COMMIT_POLICY", "best-effort")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
	if cfg.Env.ActionCodec != "cross-product" || cfg.Env.Policy != "best-effort" {
		t.Errorf("Env = %+v", cfg.Env)
	}
}

func TestLoadBadTTL(t *testing.T) {
	t.Setenv("SESSION_TTL_HOURS", "soon")
	if got := Load().SessionTTL; got != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h fallback", got)
	}
}
