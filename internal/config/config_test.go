package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("GATE_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.GatePassword != "" {
		t.Fatalf("expected empty GATE_PASSWORD when unset, got %q", cfg.GatePassword)
	}
}

func TestLoadClampsBadTTLValues(t *testing.T) {
	t.Setenv("SNAPSHOT_TTL_SECONDS", "nope")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()
	if cfg.SnapshotTTLSeconds != 300 {
		t.Fatalf("expected snapshot TTL fallback 300, got %d", cfg.SnapshotTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected token TTL fallback 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}
