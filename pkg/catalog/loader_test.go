package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mercator-hq/epicorbridge/pkg/config"
)

const validCatalog = `
queries:
  - name: zip-codes
    baq_id: ZipCodes
    required_params: [zipCode]
functions:
  - name: create-order
    library: OrderEntry
    selector: OrderType
    variants:
      OCA: CreateOCAOrder
`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), validCatalog)

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Queries) != 1 || len(cat.Functions) != 1 {
		t.Fatalf("unexpected catalog %+v", cat)
	}
	if cat.Queries[0].Method != "GET" {
		t.Errorf("expected default method GET, got %q", cat.Queries[0].Method)
	}
	if _, ok := cat.Functions[0].Variants["oca"]; !ok {
		t.Error("expected variant keys to be lower-cased")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "absent.yaml")},
		{"directory", dir},
		{"invalid yaml", writeCatalog(t, t.TempDir(), "queries: [")},
		{"invalid catalog", writeCatalog(t, t.TempDir(), "queries:\n  - name: x\n")},
		{"empty", writeCatalog(t, t.TempDir(), "  \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoadError, got %v", err)
			}
			if le.FilePath != tt.path {
				t.Errorf("expected path %q, got %q", tt.path, le.FilePath)
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			Queries: []config.QueryRoute{{Name: "inline", BAQID: "Inline"}},
		},
	}

	cat, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Queries[0].Name != "inline" {
		t.Errorf("expected inline catalog, got %+v", cat)
	}

	cfg.Gateway.CatalogPath = writeCatalog(t, t.TempDir(), validCatalog)
	cat, err = FromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Queries[0].Name != "zip-codes" {
		t.Errorf("expected file catalog, got %+v", cat)
	}
}
