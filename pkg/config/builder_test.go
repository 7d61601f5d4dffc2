package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{
		Epicor: EpicorConfig{
			Host:                "https://erp.example.com",
			Instance:            "ERPTest",
			Company:             "EPIC06",
			IntegrationUser:     "integration",
			IntegrationPassword: "secret",
			APIKey:              "erp-key",
			LicenseTypeGUID:     "00000003-b615-4300-957b-34956697f040",
		},
		Gateway: GatewayConfig{
			APIKeys: []string{"client-key"},
		},
	}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(&cfg)

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithHost sets the ERP host.
func (b *ConfigBuilder) WithHost(host string) *ConfigBuilder {
	b.cfg.Epicor.Host = host
	return b
}

// WithRenewInterval sets the session renewal interval.
func (b *ConfigBuilder) WithRenewInterval(d time.Duration) *ConfigBuilder {
	b.cfg.Session.RenewInterval = d
	return b
}

// WithQuery appends a catalog query.
func (b *ConfigBuilder) WithQuery(q QueryRoute) *ConfigBuilder {
	b.cfg.Catalog.Queries = append(b.cfg.Catalog.Queries, q)
	return b
}

// WithFunction appends a catalog function.
func (b *ConfigBuilder) WithFunction(f FunctionRoute) *ConfigBuilder {
	b.cfg.Catalog.Functions = append(b.cfg.Catalog.Functions, f)
	return b
}

// WithAudit enables the audit trail at path.
func (b *ConfigBuilder) WithAudit(path string) *ConfigBuilder {
	b.cfg.Audit.Enabled = true
	b.cfg.Audit.SQLitePath = path
	return b
}

// WithLogLevel sets the logging level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}
