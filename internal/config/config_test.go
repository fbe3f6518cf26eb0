package config

import (
	"testing"
	"time"

	"github.com/pickstreak/pickstreak/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn=https://token@api.uptrace.dev?grpc=4317")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "plain", raw: "uptrace-dsn=https://t@api.uptrace.dev", want: "https://t@api.uptrace.dev"},
		{name: "quoted", raw: `uptrace-dsn="https://t@api.uptrace.dev"`, want: "https://t@api.uptrace.dev"},
		{name: "among other headers", raw: "x-api-key=abc, uptrace-dsn=https://t@api.uptrace.dev", want: "https://t@api.uptrace.dev"},
		{name: "missing key", raw: "x-api-key=abc", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseUptraceDSNFromOTLPHeaders(tc.raw); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "pickstreak-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "pickstreak-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://pickstreak.app, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://pickstreak.app" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 30*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_OddsAPIConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.OddsAPIBaseURL != "https://api.the-odds-api.com/v4" {
			t.Fatalf("unexpected odds api base url: %q", cfg.OddsAPIBaseURL)
		}
		if cfg.OddsAPITimeout != 15*time.Second {
			t.Fatalf("unexpected odds api timeout: %s", cfg.OddsAPITimeout)
		}
		if cfg.OddsAPIMaxRetries != 1 {
			t.Fatalf("unexpected odds api max retries: %d", cfg.OddsAPIMaxRetries)
		}
		if !cfg.OddsAPICircuitEnabled {
			t.Fatalf("expected circuit breaker enabled by default")
		}
		if cfg.OddsAPICircuitFailureCount != 5 {
			t.Fatalf("unexpected circuit failure count: %d", cfg.OddsAPICircuitFailureCount)
		}
		if cfg.OddsAPICircuitOpenTimeout != 15*time.Second {
			t.Fatalf("unexpected circuit open timeout: %s", cfg.OddsAPICircuitOpenTimeout)
		}
		if cfg.OddsAPICircuitHalfOpenMaxReq != 2 {
			t.Fatalf("unexpected circuit half open max req: %d", cfg.OddsAPICircuitHalfOpenMaxReq)
		}
	})

	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("ODDS_API_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative ODDS_API_MAX_RETRIES")
		}
	})

	t.Run("zero failure count", func(t *testing.T) {
		t.Setenv("ODDS_API_MAX_RETRIES", "")
		t.Setenv("ODDS_API_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for zero ODDS_API_CIRCUIT_FAILURE_COUNT")
		}
	})
}

func TestLoad_SlateConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default sports", func(t *testing.T) {
		t.Setenv("SLATE_SPORTS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.SlateSports) != 8 {
			t.Fatalf("unexpected default slate sports length: %d", len(cfg.SlateSports))
		}
		if cfg.SlateSports[0] != "nba" {
			t.Fatalf("unexpected first slate sport: %s", cfg.SlateSports[0])
		}
	})

	t.Run("custom sports", func(t *testing.T) {
		t.Setenv("SLATE_SPORTS", " nba , nhl ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.SlateSports) != 2 || cfg.SlateSports[1] != "nhl" {
			t.Fatalf("unexpected slate sports: %+v", cfg.SlateSports)
		}
	})

	t.Run("default timezone", func(t *testing.T) {
		t.Setenv("SLATE_TIMEZONE", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SlateTimezone != "America/New_York" {
			t.Fatalf("unexpected default slate timezone: %q", cfg.SlateTimezone)
		}
	})

	t.Run("invalid timezone", func(t *testing.T) {
		t.Setenv("SLATE_TIMEZONE", "Mars/Olympus_Mons")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SLATE_TIMEZONE")
		}
	})
}

func TestLoad_ScoreSyncWorkersParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ScoreSyncWorkers != 4 {
			t.Fatalf("unexpected default score sync workers: %d", cfg.ScoreSyncWorkers)
		}
	})

	t.Run("zero workers", func(t *testing.T) {
		t.Setenv("SCORE_SYNC_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for zero SCORE_SYNC_WORKERS")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want logging.Level
	}{
		{raw: "debug", want: logging.LevelDebug},
		{raw: "info", want: logging.LevelInfo},
		{raw: "WARN", want: logging.LevelWarn},
		{raw: "warning", want: logging.LevelWarn},
		{raw: "error", want: logging.LevelError},
		{raw: "nonsense", want: logging.LevelInfo},
		{raw: "", want: logging.LevelInfo},
	}

	for _, tc := range tests {
		if got := parseLogLevel(tc.raw); got != tc.want {
			t.Fatalf("parseLogLevel(%q): expected %v, got %v", tc.raw, tc.want, got)
		}
	}
}
