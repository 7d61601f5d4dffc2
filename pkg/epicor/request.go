package epicor

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Service paths relative to the OData base.
const (
	pathValidateSession = "/Ice.Lib.SessionModSvc/IsValidSession"
	pathLogin           = "/Ice.Lib.SessionModSvc/Login"
	pathDeleteSession   = "/Ice.Lib.AdminSessionSvc/DeleteSessionByID"
	pathBAQService      = "/BaqSvc/"
)

// Request is a fully-built downstream call. Builders fill in the
// authentication headers; the Client only transports it.
type Request struct {
	// Operation is a short label for logs and metrics
	// (validate, login, logout, query, function).
	Operation string

	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func newRequest(c *Credentials, op, method, target, sessionID string, body []byte) *Request {
	h := make(http.Header)
	h.Set("License", c.LicenseHeader(sessionID))
	h.Set("Authorization", c.BasicAuth())
	h.Set("Accept", "application/json")
	h.Set("x-api-key", c.APIKey)
	if body != nil {
		h.Set("Content-Type", "application/json")
	}
	return &Request{
		Operation: op,
		Method:    method,
		URL:       target,
		Header:    h,
		Body:      body,
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// NewValidateRequest builds an IsValidSession call for token.
func NewValidateRequest(c *Credentials, token string) *Request {
	body := mustJSON(map[string]string{
		"sessionID": token,
		"userID":    c.User,
	})
	return newRequest(c, "validate", http.MethodPost, c.ODataBase()+pathValidateSession, "", body)
}

// NewLoginRequest builds a Login call that creates a new session.
func NewLoginRequest(c *Credentials) *Request {
	return newRequest(c, "login", http.MethodPost, c.ODataBase()+pathLogin, "", nil)
}

// NewLogoutRequest builds a DeleteSessionByID call for token.
func NewLogoutRequest(c *Credentials, token string) *Request {
	body := mustJSON(map[string]string{"sessionId": token})
	return newRequest(c, "logout", http.MethodPost, c.ODataBase()+pathDeleteSession, token, body)
}

// NewQueryRequest builds a BAQ data call. rawQuery is appended verbatim
// and must already be encoded.
func NewQueryRequest(c *Credentials, token, method, baqID, rawQuery string) *Request {
	target := c.ODataBase() + pathBAQService + url.PathEscape(baqID) + "/Data"
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return newRequest(c, "query", method, target, token, nil)
}

// NewFunctionRequest builds a function library call. body is forwarded
// byte for byte.
func NewFunctionRequest(c *Credentials, token, library, functionID string, body []byte) *Request {
	if body == nil {
		body = []byte{}
	}
	target := c.FunctionBase() + "/" + url.PathEscape(library) + "/" + url.PathEscape(functionID)
	return newRequest(c, "function", http.MethodPost, target, token, body)
}
