package config

import "time"

// Config is the root configuration structure for the Epicor bridge.
// It contains the inbound server settings, the upstream ERP connection,
// session lifecycle policy, the operation catalog, audit storage, and
// telemetry settings.
type Config struct {
	// Server contains inbound HTTP server configuration including listen
	// address and timeouts.
	Server ServerConfig `yaml:"server"`

	// Epicor contains the upstream ERP host and the shared integration
	// identity used for every downstream call.
	Epicor EpicorConfig `yaml:"epicor"`

	// Session contains the session lifecycle policy (renewal interval,
	// renewal timeout, logout on shutdown).
	Session SessionConfig `yaml:"session"`

	// Gateway contains the inbound API surface settings: accepted API keys,
	// passthrough routes and the catalog file location.
	Gateway GatewayConfig `yaml:"gateway"`

	// Catalog contains the inline BAQ query and function catalog. It is
	// ignored when gateway.catalog_path points at a separate catalog file.
	Catalog CatalogConfig `yaml:"catalog"`

	// Audit contains configuration for the persisted audit trail of
	// proxied operations.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets configures where ${secret:name} references in credential
	// fields are resolved from.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ServerConfig contains configuration for the inbound HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 90s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds the handling of a single inbound request,
	// including session validation and the downstream call.
	// Default: 75s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout is the maximum time to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes bounds the size of request headers.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes bounds the size of inbound function payloads.
	// Default: 10MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CompressionLevel is the gzip level used for API responses.
	// A negative value disables compression.
	// Default: 5
	CompressionLevel int `yaml:"compression_level"`

	// TLS enables HTTPS on the listener.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains listener TLS settings. Certificates are reloaded from
// disk when they change.
type TLSConfig struct {
	// Enabled turns on TLS for the inbound listener.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM-encoded server certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// CipherSuites restricts TLS 1.2 cipher suites. Empty uses Go's defaults.
	CipherSuites []string `yaml:"cipher_suites"`

	// ReloadInterval is how often the certificate files are checked for
	// changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`

	// ClientCAFile enables client certificate verification against the
	// given CA bundle.
	ClientCAFile string `yaml:"client_ca_file"`

	// ClientAuth is "require" or "verify_if_given". Only used with
	// ClientCAFile.
	// Default: "require"
	ClientAuth string `yaml:"client_auth"`
}

// SecretsConfig configures secret reference resolution. A credential field
// whose value contains ${secret:name} is resolved at startup, first from
// Dir and then from the environment.
type SecretsConfig struct {
	// EnvPrefix is prepended to the upper-cased secret name to form the
	// environment variable (erp-password -> EPICORBRIDGE_SECRET_ERP_PASSWORD).
	// Default: "EPICORBRIDGE_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir is a directory holding one file per secret, as mounted by
	// Kubernetes or Docker secrets. Files must be mode 0600 or 0400.
	Dir string `yaml:"dir"`
}

// EpicorConfig contains the upstream ERP connection settings.
// These values are read once at startup and are immutable afterwards.
type EpicorConfig struct {
	// Host is the scheme and host of the ERP server
	// (e.g., "https://erp.example.com").
	Host string `yaml:"host"`

	// Instance is the ERP application instance name.
	Instance string `yaml:"instance"`

	// Company is the ERP company identifier used to namespace the
	// OData and function paths.
	Company string `yaml:"company"`

	// IntegrationUser is the shared integration account.
	IntegrationUser string `yaml:"integration_user"`

	// IntegrationPassword is the password for IntegrationUser.
	IntegrationPassword string `yaml:"integration_password"`

	// APIKey is the ERP-issued API key sent as x-api-key.
	APIKey string `yaml:"api_key"`

	// LicenseTypeGUID is the license class claimed by the integration
	// session.
	LicenseTypeGUID string `yaml:"license_type_guid"`

	// AcceptAnyCertificate disables upstream certificate verification.
	// Default: false
	AcceptAnyCertificate bool `yaml:"accept_any_certificate"`

	// Timeout bounds a single upstream HTTP call.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the size of the upstream connection pool.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// IdleConnTimeout is how long idle upstream connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// SessionConfig contains the session lifecycle policy.
type SessionConfig struct {
	// RenewInterval is the period of the background validate-or-login task.
	// Default: 5m
	RenewInterval time.Duration `yaml:"renew_interval"`

	// RenewalTimeout bounds one validate-or-login sequence. The renewal runs
	// detached from the caller that triggered it, so this is the only bound.
	// Default: 30s
	RenewalTimeout time.Duration `yaml:"renewal_timeout"`

	// LogoutOnShutdown deletes the upstream session when the process stops.
	// Default: false
	LogoutOnShutdown bool `yaml:"logout_on_shutdown"`
}

// GatewayConfig contains the inbound API surface settings.
type GatewayConfig struct {
	// APIKeys are the keys accepted from callers.
	APIKeys []string `yaml:"api_keys"`

	// APIKeyParam is the query parameter carrying the caller's API key.
	// It is never forwarded to the ERP.
	// Default: "api_key"
	APIKeyParam string `yaml:"api_key_param"`

	// APIKeyHeader is the header that may carry the caller's API key.
	// Default: "X-API-Key"
	APIKeyHeader string `yaml:"api_key_header"`

	// AllowPassthrough exposes raw BAQ and function routes that are not in
	// the catalog.
	// Default: false
	AllowPassthrough bool `yaml:"allow_passthrough"`

	// StrictStatus maps downstream statuses other than 200 and 400 to an
	// upstream error instead of passing the body through.
	// Default: false
	StrictStatus bool `yaml:"strict_status"`

	// CatalogPath points at a separate YAML catalog file. When set, the
	// inline catalog section is ignored.
	CatalogPath string `yaml:"catalog_path"`

	// WatchCatalog reloads CatalogPath when it changes on disk.
	// Default: false
	WatchCatalog bool `yaml:"watch_catalog"`
}

// CatalogConfig lists the operations exposed by the gateway.
type CatalogConfig struct {
	// Queries are the BAQ queries exposed under /api/v1/query/{name}.
	Queries []QueryRoute `yaml:"queries"`

	// Functions are the functions exposed under /api/v1/function/{name}.
	Functions []FunctionRoute `yaml:"functions"`
}

// QueryRoute maps a public query name to a BAQ identifier.
type QueryRoute struct {
	// Name is the public route name.
	Name string `yaml:"name"`

	// BAQID is the ERP business activity query identifier.
	BAQID string `yaml:"baq_id"`

	// Method is the downstream HTTP verb.
	// Default: "GET"
	Method string `yaml:"method"`

	// RequiredParams must be present and non-empty on the inbound request.
	RequiredParams []string `yaml:"required_params"`
}

// FunctionRoute maps a public function name to a function library entry.
// A route either names a single FunctionID or routes on the value of a
// Selector query parameter through Variants.
type FunctionRoute struct {
	// Name is the public route name.
	Name string `yaml:"name"`

	// Library is the function library identifier.
	Library string `yaml:"library"`

	// FunctionID is the function identifier inside Library.
	FunctionID string `yaml:"function_id"`

	// Selector is the query parameter whose value selects a variant.
	Selector string `yaml:"selector"`

	// Variants maps lower-cased selector values to function identifiers.
	Variants map[string]string `yaml:"variants"`
}

// AuditConfig contains configuration for the audit trail.
type AuditConfig struct {
	// Enabled turns on audit recording.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SQLitePath is the audit database file.
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BufferSize is the async write channel size.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`

	// WriteTimeout bounds a single audit write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RetentionDays is how long entries are kept. 0 keeps them forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a standard cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks credentials and session tokens in log attributes.
	// Default: false
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "epicorbridge"
	Namespace string `yaml:"namespace"`

	// LatencyBuckets defines histogram buckets for upstream latency (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "epicorbridge"
	ServiceName string `yaml:"service_name"`
}
