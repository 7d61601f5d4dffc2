package epicor

import (
	"encoding/base64"
	"encoding/json"

	"mercator-hq/epicorbridge/pkg/config"
)

// Credentials is the shared integration identity and ERP location.
// It is built once at startup and never modified, so it is safe to share
// by pointer between goroutines.
type Credentials struct {
	Host          string
	Instance      string
	Company       string
	User          string
	Password      string
	APIKey        string
	LicenseTypeID string
}

// CredentialsFromConfig builds Credentials from the epicor configuration section.
func CredentialsFromConfig(cfg config.EpicorConfig) *Credentials {
	return &Credentials{
		Host:          cfg.Host,
		Instance:      cfg.Instance,
		Company:       cfg.Company,
		User:          cfg.IntegrationUser,
		Password:      cfg.IntegrationPassword,
		APIKey:        cfg.APIKey,
		LicenseTypeID: cfg.LicenseTypeGUID,
	}
}

// ODataBase returns the base URL for OData services and BAQ queries.
func (c *Credentials) ODataBase() string {
	return c.Host + "/" + c.Instance + "/api/v2/odata/" + c.Company
}

// FunctionBase returns the base URL for function library calls.
func (c *Credentials) FunctionBase() string {
	return c.Host + "/" + c.Instance + "/api/v2/efx/" + c.Company
}

// BasicAuth returns the Authorization header value for the integration user.
func (c *Credentials) BasicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User+":"+c.Password))
}

type licenseClaim struct {
	ClaimedLicense string `json:"ClaimedLicense"`
	SessionID      string `json:"SessionID,omitempty"`
}

// LicenseHeader returns the License header value. The session id is
// included only when non-empty; validate and login calls claim the
// license without one.
func (c *Credentials) LicenseHeader(sessionID string) string {
	b, err := json.Marshal(licenseClaim{ClaimedLicense: c.LicenseTypeID, SessionID: sessionID})
	if err != nil {
		// Marshalling two strings cannot fail.
		panic(err)
	}
	return string(b)
}
