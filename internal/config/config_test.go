package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.BotUsername != "abitohelp_bot" {
		t.Errorf("BotUsername = %q, want abitohelp_bot", cfg.BotUsername)
	}
	if cfg.BroadcastDelay != 50*time.Millisecond {
		t.Errorf("BroadcastDelay = %v, want 50ms", cfg.BroadcastDelay)
	}
	if cfg.SuperAdminID != 0 {
		t.Errorf("SuperAdminID = %d, want 0", cfg.SuperAdminID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SUPER_ADMIN_ID", "123456789")
	t.Setenv("GATEWAY_STUB_MODE", "true")
	t.Setenv("BROADCAST_DELAY", "2s")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.SuperAdminID != 123456789 {
		t.Errorf("SuperAdminID = %d, want 123456789", cfg.SuperAdminID)
	}
	if !cfg.GatewayStubMode {
		t.Error("GatewayStubMode = false, want true")
	}
	if cfg.BroadcastDelay != 2*time.Second {
		t.Errorf("BroadcastDelay = %v, want 2s", cfg.BroadcastDelay)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SUPER_ADMIN_ID", "not-a-number")
	t.Setenv("BROADCAST_DELAY", "soon")

	cfg := Load()

	if cfg.SuperAdminID != 0 {
		t.Errorf("SuperAdminID = %d, want fallback 0", cfg.SuperAdminID)
	}
	if cfg.BroadcastDelay != 50*time.Millisecond {
		t.Errorf("BroadcastDelay = %v, want fallback 50ms", cfg.BroadcastDelay)
	}
}
