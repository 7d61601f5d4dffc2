package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"mercator-hq/epicorbridge/pkg/config"
)

var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver replaces ${secret:name} references using an ordered list of
// providers.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver creates a resolver that consults providers in order.
func NewResolver(providers []Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		providers: providers,
		logger:    logger.With("component", "secrets"),
	}
}

// FromConfig builds the standard resolver: the secrets directory when one
// is configured, then the environment. A missing directory is logged and
// skipped so that environment secrets still resolve.
func FromConfig(cfg config.SecretsConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	if cfg.Dir != "" {
		fp, err := NewFileProvider(cfg.Dir)
		if err != nil {
			logger.Warn("secrets directory unavailable", "dir", cfg.Dir, "error", err)
		} else {
			providers = append(providers, fp)
		}
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))

	return NewResolver(providers, logger)
}

// Lookup returns the value of name from the first provider that holds it.
func (r *Resolver) Lookup(ctx context.Context, name string) (string, error) {
	for _, p := range r.providers {
		value, err := p.Lookup(ctx, name)
		if err == nil {
			r.logger.Debug("secret resolved", "name", shortName(name), "provider", p.Name())
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("secret %q from %s: %w", name, p.Name(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve replaces every reference in s. Strings without references are
// returned unchanged. All unresolved names are reported together.
func (r *Resolver) Resolve(ctx context.Context, s string) (string, error) {
	var errs []error
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := refPattern.FindStringSubmatch(ref)[1]
		value, err := r.Lookup(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return ref
		}
		return value
	})
	return out, errors.Join(errs...)
}

// ResolveConfig resolves references in the credential fields of cfg in
// place: the integration password, the ERP API key and the gateway API
// keys. Errors are reported per field as a config.ValidationError.
func (r *Resolver) ResolveConfig(ctx context.Context, cfg *config.Config) error {
	var errs []config.FieldError

	resolve := func(field string, value *string) {
		if !refPattern.MatchString(*value) {
			return
		}
		resolved, err := r.Resolve(ctx, *value)
		if err != nil {
			errs = append(errs, config.FieldError{Field: field, Message: err.Error()})
			return
		}
		if resolved == "" {
			errs = append(errs, config.FieldError{Field: field, Message: "secret resolved to an empty value"})
			return
		}
		*value = resolved
	}

	resolve("epicor.integration_password", &cfg.Epicor.IntegrationPassword)
	resolve("epicor.api_key", &cfg.Epicor.APIKey)
	for i := range cfg.Gateway.APIKeys {
		resolve(fmt.Sprintf("gateway.api_keys[%d]", i), &cfg.Gateway.APIKeys[i])
	}

	if len(errs) > 0 {
		return config.ValidationError{Errors: errs}
	}
	return nil
}

// shortName keeps the first and last two characters of a secret name.
func shortName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
