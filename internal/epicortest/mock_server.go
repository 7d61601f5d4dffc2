package epicortest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"mercator-hq/epicorbridge/pkg/epicor"
)

// Defaults used by NewMockServer.
const (
	Instance  = "ERPTest"
	Company   = "EPIC06"
	User      = "integration"
	Password  = "secret"
	APIKey    = "erp-key"
	LicenseID = "00000003-b615-4300-957b-34956697f040"
)

// Operation names recorded by the mock server.
const (
	OpValidate = "validate"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpQuery    = "query"
	OpFunction = "function"
)

// MockServer simulates the Epicor REST API. It issues session tokens on
// login, validates them, deletes them on logout, and serves BAQ and
// function calls only for valid tokens. Individual endpoints can be
// overridden with SetResponse.
type MockServer struct {
	server *httptest.Server

	mu        sync.Mutex
	sessions  map[string]bool
	nextToken int
	counts    map[string]int
	last      map[string]RecordedRequest
	responses map[string]MockResponse
	delays    map[string]time.Duration

	// session round trips currently being served, and the peak
	sessionCalls    int
	maxSessionCalls int
}

// MockResponse defines a canned response for one operation.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Headers    map[string]string
}

// RecordedRequest is a copy of an inbound request.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// NewMockServer starts a mock ERP server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		sessions:  make(map[string]bool),
		counts:    make(map[string]int),
		last:      make(map[string]RecordedRequest),
		responses: make(map[string]MockResponse),
		delays:    make(map[string]time.Duration),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// Credentials returns credentials that target this server.
func (ms *MockServer) Credentials() *epicor.Credentials {
	return &epicor.Credentials{
		Host:          ms.server.URL,
		Instance:      Instance,
		Company:       Company,
		User:          User,
		Password:      Password,
		APIKey:        APIKey,
		LicenseTypeID: LicenseID,
	}
}

// SetResponse overrides the response for an operation.
func (ms *MockServer) SetResponse(op string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[op] = response
}

// ClearResponse restores the default behavior for an operation.
func (ms *MockServer) ClearResponse(op string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.responses, op)
}

// SetDelay makes an operation wait before answering. The wait ends early
// if the client goes away.
func (ms *MockServer) SetDelay(op string, d time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.delays[op] = d
}

// IssueSession registers token as valid without a login call.
func (ms *MockServer) IssueSession(token string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[token] = true
}

// ExpireSessions invalidates every issued token.
func (ms *MockServer) ExpireSessions() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions = make(map[string]bool)
}

// SessionValid reports whether token is currently valid.
func (ms *MockServer) SessionValid(token string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.sessions[token]
}

// Count returns how many requests an operation received.
func (ms *MockServer) Count(op string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.counts[op]
}

// TotalCount returns the number of requests received.
func (ms *MockServer) TotalCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	total := 0
	for _, n := range ms.counts {
		total += n
	}
	return total
}

// MaxConcurrentSessionCalls returns the largest number of validate, login
// and logout requests that were being served at the same time.
func (ms *MockServer) MaxConcurrentSessionCalls() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.maxSessionCalls
}

// LastRequest returns the most recent request for an operation.
func (ms *MockServer) LastRequest(op string) (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	r, ok := ms.last[op]
	return r, ok
}

func classify(path string) string {
	switch {
	case strings.HasSuffix(path, "/Ice.Lib.SessionModSvc/IsValidSession"):
		return OpValidate
	case strings.HasSuffix(path, "/Ice.Lib.SessionModSvc/Login"):
		return OpLogin
	case strings.HasSuffix(path, "/Ice.Lib.AdminSessionSvc/DeleteSessionByID"):
		return OpLogout
	case strings.Contains(path, "/api/v2/odata/") && strings.Contains(path, "/BaqSvc/") && strings.HasSuffix(path, "/Data"):
		return OpQuery
	case strings.Contains(path, "/api/v2/efx/"):
		return OpFunction
	}
	return ""
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	op := classify(r.URL.Path)

	ms.mu.Lock()
	ms.counts[op]++
	ms.last[op] = RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	}
	override, hasOverride := ms.responses[op]
	delay := ms.delays[op]
	sessionOp := op == OpValidate || op == OpLogin || op == OpLogout
	if sessionOp {
		ms.sessionCalls++
		if ms.sessionCalls > ms.maxSessionCalls {
			ms.maxSessionCalls = ms.sessionCalls
		}
	}
	ms.mu.Unlock()

	if sessionOp {
		defer func() {
			ms.mu.Lock()
			ms.sessionCalls--
			ms.mu.Unlock()
		}()
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if op == "" {
		http.NotFound(w, r)
		return
	}

	if r.Header.Get("x-api-key") != APIKey {
		writeJSON(w, http.StatusUnauthorized, errorBody("Invalid API key"))
		return
	}

	if hasOverride {
		ms.writeOverride(w, override)
		return
	}

	switch op {
	case OpValidate:
		ms.handleValidate(w, body)
	case OpLogin:
		ms.handleLogin(w)
	case OpLogout:
		ms.handleLogout(w, body)
	case OpQuery:
		if !ms.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody("Session is not valid"))
			return
		}
		writeJSON(w, http.StatusOK, ODataResponse([]map[string]interface{}{}))
	case OpFunction:
		if !ms.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody("Session is not valid"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func (ms *MockServer) handleValidate(w http.ResponseWriter, body []byte) {
	var req struct {
		SessionID string `json:"sessionID"`
	}
	_ = json.Unmarshal(body, &req)

	if ms.SessionValid(req.SessionID) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"returnObj": true})
		return
	}
	writeJSON(w, http.StatusUnauthorized, errorBody("Session is not valid"))
}

func (ms *MockServer) handleLogin(w http.ResponseWriter) {
	ms.mu.Lock()
	ms.nextToken++
	token := fmt.Sprintf("session-%d", ms.nextToken)
	ms.sessions[token] = true
	ms.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"returnObj": token})
}

func (ms *MockServer) handleLogout(w http.ResponseWriter, body []byte) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	_ = json.Unmarshal(body, &req)

	ms.mu.Lock()
	delete(ms.sessions, req.SessionID)
	ms.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"returnObj": req.SessionID})
}

// authorized checks the SessionID claimed in the License header.
func (ms *MockServer) authorized(r *http.Request) bool {
	var claim struct {
		SessionID string `json:"SessionID"`
	}
	if err := json.Unmarshal([]byte(r.Header.Get("License")), &claim); err != nil {
		return false
	}
	return ms.SessionValid(claim.SessionID)
}

func (ms *MockServer) writeOverride(w http.ResponseWriter, response MockResponse) {
	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(message string) map[string]interface{} {
	return map[string]interface{}{
		"HttpStatus":   0,
		"ReasonPhrase": "REST API Exception",
		"ErrorMessage": message,
		"ErrorType":    "Ice.Common.BusinessObjectException",
	}
}

// ODataResponse builds a BAQ response envelope around rows.
func ODataResponse(rows interface{}) map[string]interface{} {
	return map[string]interface{}{
		"odata.metadata": "https://erp.example.com/api/v2/odata/$metadata#Epicor.DynamicQuery.QueryResults",
		"value":          rows,
	}
}

// MockErrorResponse creates an Epicor-style error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	body := errorBody(message)
	body["HttpStatus"] = statusCode
	return MockResponse{StatusCode: statusCode, Body: body}
}
