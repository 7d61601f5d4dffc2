package main

import (
	"os"
	"path/filepath"
	"testing"

	"mercator-hq/epicorbridge/internal/epicortest"
)

// gatewayConfig returns a minimal valid configuration pointing at host.
func gatewayConfig(host string) string {
	return `
epicor:
  host: "` + host + `"
  instance: "` + epicortest.Instance + `"
  company: "` + epicortest.Company + `"
  integration_user: "` + epicortest.User + `"
  integration_password: "` + epicortest.Password + `"
  api_key: "` + epicortest.APIKey + `"
  license_type_guid: "` + epicortest.LicenseID + `"

gateway:
  api_keys: ["client-key"]
`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
