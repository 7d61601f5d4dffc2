package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/epicorbridge/pkg/config"
)

// maxFileSize bounds catalog files.
const maxFileSize = 1 << 20

// LoadFile reads, defaults and validates a standalone catalog file.
func LoadFile(path string) (*config.CatalogConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "cannot stat file", Cause: err}
	}
	if info.IsDir() {
		return nil, &LoadError{FilePath: path, Message: "path is a directory"}
	}
	if info.Size() > maxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file exceeds %d bytes", maxFileSize),
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from operator configuration
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "cannot read file", Cause: err}
	}
	// A truncated file seen mid-write must not wipe the catalog.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{FilePath: path, Message: "file is empty"}
	}

	return Parse(path, data)
}

// Parse decodes catalog YAML. path is only used in errors.
func Parse(path string, data []byte) (*config.CatalogConfig, error) {
	var cat config.CatalogConfig
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid YAML", Cause: err}
	}

	config.ApplyCatalogDefaults(&cat)
	if err := config.ValidateCatalog(&cat); err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid catalog", Cause: err}
	}
	return &cat, nil
}

// FromConfig returns the catalog named by cfg: the file at
// gateway.catalog_path when set, the inline catalog otherwise.
func FromConfig(cfg *config.Config) (*config.CatalogConfig, error) {
	if cfg.Gateway.CatalogPath != "" {
		return LoadFile(cfg.Gateway.CatalogPath)
	}
	cat := cfg.Catalog
	return &cat, nil
}
