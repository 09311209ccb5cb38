package config

import "testing"

func TestEnvOr(t *testing.T) {
	t.Setenv("STATSYNC_TEST_KEY", "custom")
	if got := envOr("STATSYNC_TEST_KEY", "fallback"); got != "custom" {
		t.Errorf("envOr = %q, want %q", got, "custom")
	}
	if got := envOr("STATSYNC_MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr = %q, want %q", got, "fallback")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("STATSYNC_TEST_INT", "42")
	if got := envInt("STATSYNC_TEST_INT", 7); got != 42 {
		t.Errorf("envInt = %d, want 42", got)
	}

	t.Setenv("STATSYNC_TEST_INT", "not a number")
	if got := envInt("STATSYNC_TEST_INT", 7); got != 7 {
		t.Errorf("envInt on bad value = %d, want fallback 7", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.BatchSizeHeavy != 5 {
		t.Errorf("BatchSizeHeavy = %d, want 5", cfg.BatchSizeHeavy)
	}
	if cfg.ListingLimit != 25 {
		t.Errorf("ListingLimit = %d, want 25", cfg.ListingLimit)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
}
