package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port, got %s", cfg.APIPort)
	}
	if cfg.NATSParseSubject != "documents.parse" || cfg.NATSValidateSubject != "groups.validate" {
		t.Fatalf("unexpected default subjects: %s / %s", cfg.NATSParseSubject, cfg.NATSValidateSubject)
	}
	if cfg.APIRateLimitRPS != 20 || cfg.APIRateLimitBurst != 40 {
		t.Fatalf("unexpected default rate limit: %f/%d", cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_MAX_IN_FLIGHT", "8")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("expected overridden port, got %s", cfg.APIPort)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected overridden rps, got %f", cfg.APIRateLimitRPS)
	}
	if cfg.APIMaxInFlight != 8 {
		t.Fatalf("expected overridden in-flight cap, got %d", cfg.APIMaxInFlight)
	}
}

func TestLoadMalformedNumberFallsBack(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_RPS", "fast")
	t.Setenv("ERP_TIMEOUT_SECONDS", "soon")

	cfg := Load()
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected fallback rps, got %f", cfg.APIRateLimitRPS)
	}
	if cfg.ERPTimeoutSeconds != 15 {
		t.Fatalf("expected fallback timeout, got %d", cfg.ERPTimeoutSeconds)
	}
}
