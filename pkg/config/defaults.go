package config

import (
	"net/http"
	"strings"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress    = "0.0.0.0:8080"
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 90 * time.Second
	DefaultIdleTimeout      = 120 * time.Second
	DefaultRequestTimeout   = 75 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultMaxHeaderBytes   = 1048576  // 1MB
	DefaultMaxBodyBytes     = 10485760 // 10MB
	DefaultCompressionLevel = 5

	// TLS defaults
	DefaultTLSMinVersion     = "1.2"
	DefaultTLSReloadInterval = 5 * time.Minute
	DefaultTLSClientAuth     = "require"

	// Secrets defaults
	DefaultSecretsEnvPrefix = "EPICORBRIDGE_SECRET_"

	// Epicor defaults
	DefaultEpicorTimeout         = 60 * time.Second
	DefaultEpicorMaxIdleConns    = 100
	DefaultEpicorIdleConnTimeout = 90 * time.Second

	// Session defaults
	DefaultRenewInterval  = 5 * time.Minute
	DefaultRenewalTimeout = 30 * time.Second

	// Gateway defaults
	DefaultAPIKeyParam  = "api_key"
	DefaultAPIKeyHeader = "X-API-Key"
	DefaultQueryMethod  = http.MethodGet

	// Audit defaults
	DefaultAuditSQLitePath    = "data/audit.db"
	DefaultAuditBufferSize    = 1000
	DefaultAuditWriteTimeout  = 5 * time.Second
	DefaultAuditRetentionDays = 30
	DefaultAuditPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "epicorbridge"

	// Tracing defaults
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "epicorbridge"
)

// DefaultLatencyBuckets are the upstream latency histogram buckets in seconds.
var DefaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.CompressionLevel == 0 {
		cfg.Server.CompressionLevel = DefaultCompressionLevel
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReloadInterval
	}
	if cfg.Server.TLS.ClientAuth == "" {
		cfg.Server.TLS.ClientAuth = DefaultTLSClientAuth
	}

	// Epicor defaults
	cfg.Epicor.Host = strings.TrimRight(cfg.Epicor.Host, "/")
	if cfg.Epicor.Timeout == 0 {
		cfg.Epicor.Timeout = DefaultEpicorTimeout
	}
	if cfg.Epicor.MaxIdleConns == 0 {
		cfg.Epicor.MaxIdleConns = DefaultEpicorMaxIdleConns
	}
	if cfg.Epicor.IdleConnTimeout == 0 {
		cfg.Epicor.IdleConnTimeout = DefaultEpicorIdleConnTimeout
	}

	// Session defaults
	if cfg.Session.RenewInterval == 0 {
		cfg.Session.RenewInterval = DefaultRenewInterval
	}
	if cfg.Session.RenewalTimeout == 0 {
		cfg.Session.RenewalTimeout = DefaultRenewalTimeout
	}

	// Gateway defaults
	if cfg.Gateway.APIKeyParam == "" {
		cfg.Gateway.APIKeyParam = DefaultAPIKeyParam
	}
	if cfg.Gateway.APIKeyHeader == "" {
		cfg.Gateway.APIKeyHeader = DefaultAPIKeyHeader
	}

	ApplyCatalogDefaults(&cfg.Catalog)

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	// Audit defaults
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = DefaultAuditBufferSize
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultAuditRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultAuditPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.LatencyBuckets) == 0 {
		cfg.Telemetry.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.Sampler == DefaultTracingSampler && cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

// ApplyCatalogDefaults normalizes catalog entries: query verbs are
// upper-cased and default to GET, variant keys are lower-cased.
// It is shared by the inline catalog and standalone catalog files.
func ApplyCatalogDefaults(cat *CatalogConfig) {
	for i := range cat.Queries {
		q := &cat.Queries[i]
		if q.Method == "" {
			q.Method = DefaultQueryMethod
		}
		q.Method = strings.ToUpper(q.Method)
	}
	for i := range cat.Functions {
		f := &cat.Functions[i]
		if len(f.Variants) == 0 {
			continue
		}
		normalized := make(map[string]string, len(f.Variants))
		for k, v := range f.Variants {
			normalized[strings.ToLower(k)] = v
		}
		f.Variants = normalized
	}
}
