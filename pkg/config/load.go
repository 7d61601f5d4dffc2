package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for every environment variable override.
const EnvPrefix = "EPICORBRIDGE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention EPICORBRIDGE_SECTION_FIELD (e.g., EPICORBRIDGE_EPICOR_HOST).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// Validation runs only once, after the overrides, so credentials may be
// supplied exclusively through the environment.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// loadFile reads, parses and defaults a configuration file without validating it.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Boolean defaults that are true must be seeded before parsing,
	// a zero value cannot be told apart from an explicit false afterwards.
	cfg := Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Invalid numeric, boolean or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envBool("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)

	// Epicor overrides
	if val := os.Getenv(EnvPrefix + "EPICOR_HOST"); val != "" {
		cfg.Epicor.Host = strings.TrimRight(val, "/")
	}
	envString("EPICOR_INSTANCE", &cfg.Epicor.Instance)
	envString("EPICOR_COMPANY", &cfg.Epicor.Company)
	envString("EPICOR_INTEGRATION_USER", &cfg.Epicor.IntegrationUser)
	envString("EPICOR_INTEGRATION_PASSWORD", &cfg.Epicor.IntegrationPassword)
	envString("EPICOR_API_KEY", &cfg.Epicor.APIKey)
	envString("EPICOR_LICENSE_TYPE_GUID", &cfg.Epicor.LicenseTypeGUID)
	envBool("EPICOR_ACCEPT_ANY_CERTIFICATE", &cfg.Epicor.AcceptAnyCertificate)
	envDuration("EPICOR_TIMEOUT", &cfg.Epicor.Timeout)

	// Session overrides
	envDuration("SESSION_RENEW_INTERVAL", &cfg.Session.RenewInterval)
	envDuration("SESSION_RENEWAL_TIMEOUT", &cfg.Session.RenewalTimeout)
	envBool("SESSION_LOGOUT_ON_SHUTDOWN", &cfg.Session.LogoutOnShutdown)

	// Gateway overrides
	if val := os.Getenv(EnvPrefix + "GATEWAY_API_KEYS"); val != "" {
		var keys []string
		for _, k := range strings.Split(val, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		cfg.Gateway.APIKeys = keys
	}
	envString("GATEWAY_API_KEY_PARAM", &cfg.Gateway.APIKeyParam)
	envBool("GATEWAY_ALLOW_PASSTHROUGH", &cfg.Gateway.AllowPassthrough)
	envBool("GATEWAY_STRICT_STATUS", &cfg.Gateway.StrictStatus)
	envString("GATEWAY_CATALOG_PATH", &cfg.Gateway.CatalogPath)
	envBool("GATEWAY_WATCH_CATALOG", &cfg.Gateway.WatchCatalog)

	// Secrets overrides
	envString("SECRETS_DIR", &cfg.Secrets.Dir)

	// Audit overrides
	envBool("AUDIT_ENABLED", &cfg.Audit.Enabled)
	envString("AUDIT_SQLITE_PATH", &cfg.Audit.SQLitePath)
	envInt("AUDIT_RETENTION_DAYS", &cfg.Audit.RetentionDays)
	envString("AUDIT_PRUNE_SCHEDULE", &cfg.Audit.PruneSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
