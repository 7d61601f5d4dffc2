package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
epicor:
  host: "https://erp.example.com/"
  instance: "ERPTest"
  company: "EPIC06"
  integration_user: "integration"
  integration_password: "secret"
  api_key: "erp-key"
  license_type_guid: "00000003-b615-4300-957b-34956697f040"

gateway:
  api_keys: ["client-key"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, minimalConfig+`
server:
  listen_address: "127.0.0.1:9090"
  read_timeout: "60s"

session:
  renew_interval: "2m"
  logout_on_shutdown: true

catalog:
  queries:
    - name: customers
      baq_id: CustomerList
      required_params: [zipCode]
  functions:
    - name: create-order
      library: OrderLib
      selector: OrderType
      variants:
        OCA: CreateOcaOrder

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Epicor.Host != "https://erp.example.com" {
		t.Errorf("expected trimmed host, got %q", cfg.Epicor.Host)
	}
	if cfg.Session.RenewInterval != 2*time.Minute {
		t.Errorf("expected renew interval %v, got %v", 2*time.Minute, cfg.Session.RenewInterval)
	}
	if !cfg.Session.LogoutOnShutdown {
		t.Error("expected logout_on_shutdown to be true")
	}
	if len(cfg.Catalog.Queries) != 1 || cfg.Catalog.Queries[0].Method != "GET" {
		t.Errorf("expected one GET query, got %+v", cfg.Catalog.Queries)
	}
	if cfg.Catalog.Functions[0].Variants["oca"] != "CreateOcaOrder" {
		t.Errorf("expected normalized variants, got %v", cfg.Catalog.Functions[0].Variants)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_MetricsEnabledByDefault(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be enabled by default")
	}
	if cfg.Audit.Enabled {
		t.Error("expected audit to be disabled by default")
	}

	cfg, err = LoadConfig(writeConfig(t, minimalConfig+`
telemetry:
  metrics:
    enabled: false
`))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected explicit false to disable metrics")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server: [unterminated"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
epicor:
  host: "erp.example.com"
`))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"epicor.host", "epicor.integration_password", "gateway.api_keys"} {
		if !fields[want] {
			t.Errorf("expected error for field %q, got %v", want, verr.Errors)
		}
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("EPICORBRIDGE_SERVER_LISTEN_ADDRESS", "0.0.0.0:7070")
	t.Setenv("EPICORBRIDGE_SESSION_RENEW_INTERVAL", "90s")
	t.Setenv("EPICORBRIDGE_GATEWAY_API_KEYS", "one, two ,")
	t.Setenv("EPICORBRIDGE_GATEWAY_STRICT_STATUS", "true")
	t.Setenv("EPICORBRIDGE_AUDIT_RETENTION_DAYS", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7070" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:7070", cfg.Server.ListenAddress)
	}
	if cfg.Session.RenewInterval != 90*time.Second {
		t.Errorf("expected renew interval %v, got %v", 90*time.Second, cfg.Session.RenewInterval)
	}
	if len(cfg.Gateway.APIKeys) != 2 || cfg.Gateway.APIKeys[0] != "one" || cfg.Gateway.APIKeys[1] != "two" {
		t.Errorf("expected api keys [one two], got %v", cfg.Gateway.APIKeys)
	}
	if !cfg.Gateway.StrictStatus {
		t.Error("expected strict status to be enabled")
	}
	if cfg.Audit.RetentionDays != DefaultAuditRetentionDays {
		t.Errorf("expected invalid override to be ignored, got %d", cfg.Audit.RetentionDays)
	}
}

func TestLoadConfigWithEnvOverrides_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("EPICORBRIDGE_EPICOR_INTEGRATION_PASSWORD", "from-env")
	t.Setenv("EPICORBRIDGE_EPICOR_API_KEY", "erp-key-env")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, `
epicor:
  host: "https://erp.example.com"
  instance: "ERPTest"
  company: "EPIC06"
  integration_user: "integration"
  license_type_guid: "00000003-b615-4300-957b-34956697f040"
gateway:
  api_keys: ["client-key"]
`))
	if err != nil {
		t.Fatalf("expected environment to satisfy required credentials: %v", err)
	}
	if cfg.Epicor.IntegrationPassword != "from-env" {
		t.Errorf("expected password from environment, got %q", cfg.Epicor.IntegrationPassword)
	}
}
