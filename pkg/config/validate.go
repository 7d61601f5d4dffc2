package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "epicor.host").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateEpicor(&cfg.Epicor)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateGateway(&cfg.Gateway)...)

	// A catalog file replaces the inline section and is validated on load.
	if cfg.Gateway.CatalogPath == "" {
		errs = append(errs, validateCatalog("catalog", &cfg.Catalog)...)
	}

	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// ValidateCatalog validates a standalone catalog.
func ValidateCatalog(cat *CatalogConfig) error {
	if errs := validateCatalog("catalog", cat); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.CompressionLevel > 9 {
		errs = append(errs, FieldError{
			Field:   "server.compression_level",
			Message: fmt.Sprintf("compression level must be at most 9, got %d", cfg.CompressionLevel),
		})
	}

	errs = append(errs, validateTLS(&cfg.TLS)...)

	return errs
}

func validateTLS(cfg *TLSConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.CertFile == "" {
		errs = append(errs, FieldError{
			Field:   "server.tls.cert_file",
			Message: "cert_file is required when TLS is enabled",
		})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{
			Field:   "server.tls.key_file",
			Message: "key_file is required when TLS is enabled",
		})
	}
	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("min version must be 1.2 or 1.3, got %q", cfg.MinVersion),
		})
	}
	if cfg.ReloadInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "server.tls.reload_interval",
			Message: "reload interval must be positive",
		})
	}
	if cfg.ClientCAFile != "" && cfg.ClientAuth != "require" && cfg.ClientAuth != "verify_if_given" {
		errs = append(errs, FieldError{
			Field:   "server.tls.client_auth",
			Message: fmt.Sprintf("client auth must be require or verify_if_given, got %q", cfg.ClientAuth),
		})
	}
	return errs
}

// validateEpicor checks the upstream connection. Every credential is
// required; the gateway cannot open a session without them.
func validateEpicor(cfg *EpicorConfig) []FieldError {
	var errs []FieldError

	if cfg.Host == "" {
		errs = append(errs, FieldError{
			Field:   "epicor.host",
			Message: "host is required",
		})
	} else if u, err := url.Parse(cfg.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "epicor.host",
			Message: fmt.Sprintf("host must be an absolute URL with scheme, got %q", cfg.Host),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "epicor.host",
			Message: fmt.Sprintf("host scheme must be http or https, got %q", u.Scheme),
		})
	}

	required := []struct {
		field string
		value string
	}{
		{"epicor.instance", cfg.Instance},
		{"epicor.company", cfg.Company},
		{"epicor.integration_user", cfg.IntegrationUser},
		{"epicor.integration_password", cfg.IntegrationPassword},
		{"epicor.api_key", cfg.APIKey},
		{"epicor.license_type_guid", cfg.LicenseTypeGUID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{
				Field:   r.field,
				Message: "value is required",
			})
		}
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "epicor.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "epicor.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}

	return errs
}

func validateSession(cfg *SessionConfig) []FieldError {
	var errs []FieldError

	if cfg.RenewInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "session.renew_interval",
			Message: "renew interval must be positive",
		})
	}
	if cfg.RenewalTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "session.renewal_timeout",
			Message: "renewal timeout must be positive",
		})
	}

	return errs
}

func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if len(cfg.APIKeys) == 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.api_keys",
			Message: "at least one API key is required",
		})
	}
	for i, k := range cfg.APIKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("gateway.api_keys[%d]", i),
				Message: "API key must not be empty",
			})
		}
	}
	if cfg.APIKeyParam == "" {
		errs = append(errs, FieldError{
			Field:   "gateway.api_key_param",
			Message: "API key parameter name is required",
		})
	}
	if cfg.WatchCatalog && cfg.CatalogPath == "" {
		errs = append(errs, FieldError{
			Field:   "gateway.watch_catalog",
			Message: "catalog_path is required when watch_catalog is enabled",
		})
	}

	return errs
}

func validateCatalog(prefix string, cfg *CatalogConfig) []FieldError {
	var errs []FieldError

	validMethods := map[string]bool{
		http.MethodGet:    true,
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodPatch:  true,
		http.MethodDelete: true,
	}

	seen := make(map[string]bool)
	for i, q := range cfg.Queries {
		field := fmt.Sprintf("%s.queries[%d]", prefix, i)
		if q.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "name is required"})
		} else if seen[q.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate query name %q", q.Name)})
		}
		seen[q.Name] = true

		if q.BAQID == "" {
			errs = append(errs, FieldError{Field: field + ".baq_id", Message: "BAQ id is required"})
		}
		if q.Method != "" && !validMethods[strings.ToUpper(q.Method)] {
			errs = append(errs, FieldError{
				Field:   field + ".method",
				Message: fmt.Sprintf("invalid method %q", q.Method),
			})
		}
	}

	seen = make(map[string]bool)
	for i, f := range cfg.Functions {
		field := fmt.Sprintf("%s.functions[%d]", prefix, i)
		if f.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "name is required"})
		} else if seen[f.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate function name %q", f.Name)})
		}
		seen[f.Name] = true

		if f.Library == "" {
			errs = append(errs, FieldError{Field: field + ".library", Message: "library is required"})
		}

		routed := f.Selector != "" || len(f.Variants) > 0
		switch {
		case routed && f.FunctionID != "":
			errs = append(errs, FieldError{
				Field:   field,
				Message: "function_id and selector/variants are mutually exclusive",
			})
		case routed && (f.Selector == "" || len(f.Variants) == 0):
			errs = append(errs, FieldError{
				Field:   field,
				Message: "selector and variants must be set together",
			})
		case !routed && f.FunctionID == "":
			errs = append(errs, FieldError{
				Field:   field + ".function_id",
				Message: "function id is required",
			})
		}
		for k, v := range f.Variants {
			if v == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.variants[%s]", field, k),
					Message: "variant function id is required",
				})
			}
		}
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite_path",
			Message: "sqlite path is required when audit is enabled",
		})
	}
	if cfg.BufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer_size",
			Message: "buffer size must be non-negative",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "audit.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q, must be one of: debug, info, warn, error", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q, must be one of: json, text, console", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		for i := 1; i < len(cfg.Metrics.LatencyBuckets); i++ {
			if cfg.Metrics.LatencyBuckets[i] <= cfg.Metrics.LatencyBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.latency_buckets",
					Message: "buckets must be in strictly increasing order",
				})
				break
			}
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q, must be one of: always, never, ratio", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0.0 and 1.0",
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	return errs
}
