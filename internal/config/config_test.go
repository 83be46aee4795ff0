package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("APPROVAL_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ApprovalPIN != "" {
		t.Fatalf("expected empty APPROVAL_PIN when unset, got %q", cfg.ApprovalPIN)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RANKING_TTL_SECONDS", "")
	t.Setenv("REVEAL_TOKEN_COST", "")
	t.Setenv("METRICS_ENABLED", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RankingTTLSeconds != 20 {
		t.Fatalf("expected default ranking ttl 20, got %d", cfg.RankingTTLSeconds)
	}
	if cfg.RevealTokenCost != 1 {
		t.Fatalf("expected default reveal cost 1, got %d", cfg.RevealTokenCost)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("expected metrics enabled by default")
	}
}

func TestLoadClampsInvalidNumbers(t *testing.T) {
	t.Setenv("RANKING_TTL_SECONDS", "not-a-number")
	t.Setenv("REVEAL_TOKEN_COST", "-3")

	cfg := Load()
	if cfg.RankingTTLSeconds != 20 {
		t.Fatalf("expected invalid ttl to fall back to 20, got %d", cfg.RankingTTLSeconds)
	}
	if cfg.RevealTokenCost != 1 {
		t.Fatalf("expected negative reveal cost to fall back to 1, got %d", cfg.RevealTokenCost)
	}
}

func TestMetricsCanBeDisabled(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()
	if cfg.MetricsEnabled {
		t.Fatalf("expected metrics disabled")
	}
}
