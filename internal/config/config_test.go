package config

import (
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	v, err := envInt("TEST_INT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	v, err := envInt("TEST_INT_MISSING", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	_, err := envInt("TEST_INT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-integer value, got nil")
	}
	if got := err.Error(); got != `TEST_INT_BAD="abc" is not a valid integer` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvBoolValid(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	v, err := envBool("TEST_BOOL", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v {
		t.Fatal("expected true")
	}
}

func TestEnvBoolInvalid(t *testing.T) {
	t.Setenv("TEST_BOOL_BAD", "maybe")
	_, err := envBool("TEST_BOOL_BAD", false)
	if err == nil {
		t.Fatal("expected error for non-boolean value, got nil")
	}
	if got := err.Error(); got != `TEST_BOOL_BAD="maybe" is not a valid boolean` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvDurationValid(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	v, err := envDuration("TEST_DUR", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Seconds() != 5 {
		t.Fatalf("expected 5s, got %s", v)
	}
}

func TestEnvDurationInvalid(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	_, err := envDuration("TEST_DUR_BAD", 0)
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if got := err.Error(); got != `TEST_DUR_BAD="five-seconds" is not a valid duration` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvFloatValid(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.75")
	v, err := envFloat("TEST_FLOAT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0.75 {
		t.Fatalf("expected 0.75, got %f", v)
	}
}

func TestEnvFloatInvalid(t *testing.T) {
	t.Setenv("TEST_FLOAT_BAD", "high")
	_, err := envFloat("TEST_FLOAT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-numeric value, got nil")
	}
}

func baseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SIGNATURE_SECRET", "test-secret")
	t.Setenv("LEDGER_URL", "postgres://test:test@db:5432/ledger")
	t.Setenv("ONTOLOGY_URL", "postgres://test:test@db:5432/ontology")
}

func TestLoadFailsWithoutSignatureSecret(t *testing.T) {
	t.Setenv("LEDGER_URL", "postgres://test:test@db:5432/ledger")
	t.Setenv("ONTOLOGY_URL", "postgres://test:test@db:5432/ontology")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail without SIGNATURE_SECRET")
	}
	if got := err.Error(); !contains(got, "SIGNATURE_SECRET") {
		t.Fatalf("error should mention SIGNATURE_SECRET, got: %s", got)
	}
}

func TestLoadFailsOnInvalidPort(t *testing.T) {
	baseEnv(t)
	t.Setenv("VIGIL_PORT", "abc")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with invalid VIGIL_PORT")
	}
	if got := err.Error(); !contains(got, "VIGIL_PORT") || !contains(got, "abc") {
		t.Fatalf("error should mention VIGIL_PORT and value 'abc', got: %s", got)
	}
}

func TestLoadFailsOnMultipleInvalid(t *testing.T) {
	baseEnv(t)
	t.Setenv("VIGIL_PORT", "abc")
	t.Setenv("VIGIL_T_TOTAL_MS", "xyz")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with multiple invalid vars")
	}
	got := err.Error()
	if !contains(got, "VIGIL_PORT") {
		t.Fatalf("error should mention VIGIL_PORT, got: %s", got)
	}
	if !contains(got, "VIGIL_T_TOTAL_MS") {
		t.Fatalf("error should mention VIGIL_T_TOTAL_MS, got: %s", got)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	baseEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.TTotalMS != 200 {
		t.Fatalf("expected default T_total 200ms, got %d", cfg.TTotalMS)
	}
	if cfg.CoverageFloor != 0.8 {
		t.Fatalf("expected default COVERAGE_FLOOR 0.8, got %f", cfg.CoverageFloor)
	}
	if cfg.CompleteFailClosed {
		t.Fatal("expected COMPLETE_FAIL_CLOSED to default to false")
	}
}

func TestLoadFailsWhenValidatorBudgetExceedsTotal(t *testing.T) {
	baseEnv(t)
	t.Setenv("VIGIL_T_VAL_MS", "250")
	t.Setenv("VIGIL_T_TOTAL_MS", "200")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail when T_val >= T_total")
	}
	if got := err.Error(); !contains(got, "VIGIL_T_VAL_MS") {
		t.Fatalf("error should mention VIGIL_T_VAL_MS, got: %s", got)
	}
}

func TestLoad_JWTKeyBothOrNeither(t *testing.T) {
	t.Run("private only fails", func(t *testing.T) {
		baseEnv(t)
		t.Setenv("VIGIL_JWT_PRIVATE_KEY", "/some/path")
		t.Setenv("VIGIL_JWT_PUBLIC_KEY", "")

		_, err := Load()
		if err == nil {
			t.Fatal("expected Load() to fail when only private key is set")
		}
		if !contains(err.Error(), "both be set or both be empty") {
			t.Fatalf("error should mention both-or-neither, got: %s", err.Error())
		}
	})

	t.Run("both empty succeeds (ephemeral)", func(t *testing.T) {
		baseEnv(t)
		t.Setenv("VIGIL_JWT_PRIVATE_KEY", "")
		t.Setenv("VIGIL_JWT_PUBLIC_KEY", "")

		_, err := Load()
		if err != nil {
			t.Fatalf("expected Load() to succeed with both keys empty (ephemeral mode), got: %v", err)
		}
	})
}

func TestLoad_AllEnvVarsHonored(t *testing.T) {
	baseEnv(t)
	t.Setenv("VIGIL_PORT", "9090")
	t.Setenv("VIGIL_T_TOTAL_MS", "300")
	t.Setenv("VIGIL_T_VAL_MS", "200")
	t.Setenv("COVERAGE_FLOOR", "0.9")
	t.Setenv("COMPLETE_FAIL_CLOSED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "vigil-test")
	t.Setenv("VIGIL_LOG_LEVEL", "debug")
	t.Setenv("VIGIL_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("VIGIL_SHUTDOWN_HTTP_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed, got: %v", err)
	}

	if cfg.Port != 9090 {
		t.Fatalf("expected Port 9090, got %d", cfg.Port)
	}
	if cfg.TTotalMS != 300 {
		t.Fatalf("expected T_total 300, got %d", cfg.TTotalMS)
	}
	if cfg.CoverageFloor != 0.9 {
		t.Fatalf("expected COVERAGE_FLOOR 0.9, got %f", cfg.CoverageFloor)
	}
	if !cfg.CompleteFailClosed {
		t.Fatal("expected COMPLETE_FAIL_CLOSED true")
	}
	if cfg.ServiceName != "vigil-test" {
		t.Fatalf("expected ServiceName %q, got %q", "vigil-test", cfg.ServiceName)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected LogLevel %q, got %q", "debug", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.ShutdownHTTPTimeout != 15*time.Second {
		t.Fatalf("expected ShutdownHTTPTimeout 15s, got %s", cfg.ShutdownHTTPTimeout)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchSubstring(s, substr)
}

func searchSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
