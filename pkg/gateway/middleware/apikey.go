package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/gateway/types"
)

var (
	errMissingAPIKey = errors.New("no API key found")
	errInvalidAPIKey = errors.New("invalid API key")
)

// APIKeySource defines where to extract API keys from.
type APIKeySource struct {
	Type string // "header" or "query"
	Name string // header name or query parameter
}

// APIKeyValidator checks caller keys against the configured set.
type APIKeyValidator struct {
	digests [][sha256.Size]byte
}

// NewAPIKeyValidator creates a validator for keys. Empty keys are ignored.
func NewAPIKeyValidator(keys []string) *APIKeyValidator {
	v := &APIKeyValidator{}
	for _, k := range keys {
		if k == "" {
			continue
		}
		v.digests = append(v.digests, sha256.Sum256([]byte(k)))
	}
	return v
}

// Validate reports whether key is one of the configured keys. Every
// configured key is compared, and comparisons run over fixed-size digests,
// so timing reveals neither which key matched nor its length.
func (v *APIKeyValidator) Validate(key string) error {
	if key == "" {
		return errMissingAPIKey
	}
	d := sha256.Sum256([]byte(key))

	match := 0
	for i := range v.digests {
		match |= subtle.ConstantTimeCompare(d[:], v.digests[i][:])
	}
	if match != 1 {
		return errInvalidAPIKey
	}
	return nil
}

// APIKeyMiddleware rejects requests without a valid caller API key.
type APIKeyMiddleware struct {
	validator *APIKeyValidator
	sources   []APIKeySource
	logger    *slog.Logger
}

// NewAPIKeyMiddleware creates the middleware from the gateway settings:
// keys come from the api_key_param query parameter or the api_key_header.
func NewAPIKeyMiddleware(cfg *config.GatewayConfig, logger *slog.Logger) *APIKeyMiddleware {
	if logger == nil {
		logger = slog.Default()
	}

	var sources []APIKeySource
	if cfg.APIKeyParam != "" {
		sources = append(sources, APIKeySource{Type: "query", Name: cfg.APIKeyParam})
	}
	if cfg.APIKeyHeader != "" {
		sources = append(sources, APIKeySource{Type: "header", Name: cfg.APIKeyHeader})
	}

	return &APIKeyMiddleware{
		validator: NewAPIKeyValidator(cfg.APIKeys),
		sources:   sources,
		logger:    logger.With("component", "auth"),
	}
}

// Handle wraps an HTTP handler with API key authentication.
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := m.validator.Validate(m.extractAPIKey(r))
		if err != nil {
			m.logger.WarnContext(r.Context(), "rejected request",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			types.WriteError(w, http.StatusUnauthorized,
				types.NewAuthenticationError("Missing or invalid API key", types.CodeInvalidAPIKey))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractAPIKey returns the first non-empty key found in the configured
// sources.
func (m *APIKeyMiddleware) extractAPIKey(r *http.Request) string {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			if value := strings.TrimSpace(r.Header.Get(source.Name)); value != "" {
				return value
			}
		case "query":
			if value := queryValue(r.URL.RawQuery, source.Name); value != "" {
				return value
			}
		}
	}
	return ""
}

// queryValue finds name in a raw query without failing on unrelated
// malformed pairs, which are reported later by the handlers.
func queryValue(rawQuery, name string) string {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		k, v, _ := strings.Cut(pair, "=")
		if key, err := url.QueryUnescape(k); err != nil || key != name {
			continue
		}
		if value, err := url.QueryUnescape(v); err == nil && value != "" {
			return value
		}
	}
	return ""
}
