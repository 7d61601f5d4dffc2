package epicor

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
)

func testCredentials() *Credentials {
	return &Credentials{
		Host:          "https://erp.example.com",
		Instance:      "ERPTest",
		Company:       "EPIC06",
		User:          "integration",
		Password:      "secret",
		APIKey:        "erp-key",
		LicenseTypeID: "lic-guid",
	}
}

func TestCredentials_Bases(t *testing.T) {
	c := testCredentials()

	if got, want := c.ODataBase(), "https://erp.example.com/ERPTest/api/v2/odata/EPIC06"; got != want {
		t.Errorf("expected odata base %q, got %q", want, got)
	}
	if got, want := c.FunctionBase(), "https://erp.example.com/ERPTest/api/v2/efx/EPIC06"; got != want {
		t.Errorf("expected function base %q, got %q", want, got)
	}
}

func TestCredentials_BasicAuth(t *testing.T) {
	got := testCredentials().BasicAuth()
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("integration:secret"))
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCredentials_LicenseHeader(t *testing.T) {
	c := testCredentials()

	if got := c.LicenseHeader(""); got != `{"ClaimedLicense":"lic-guid"}` {
		t.Errorf("unexpected license header without session: %s", got)
	}
	if got := c.LicenseHeader("tok-1"); got != `{"ClaimedLicense":"lic-guid","SessionID":"tok-1"}` {
		t.Errorf("unexpected license header with session: %s", got)
	}
}

func TestNewValidateRequest(t *testing.T) {
	req := NewValidateRequest(testCredentials(), "tok-1")

	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	if req.URL != "https://erp.example.com/ERPTest/api/v2/odata/EPIC06/Ice.Lib.SessionModSvc/IsValidSession" {
		t.Errorf("unexpected URL %q", req.URL)
	}

	var body map[string]string
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["sessionID"] != "tok-1" || body["userID"] != "integration" {
		t.Errorf("unexpected validate body %v", body)
	}
	if got := req.Header.Get("License"); got != `{"ClaimedLicense":"lic-guid"}` {
		t.Errorf("validate must not claim a session id, got %s", got)
	}
	assertCommonHeaders(t, req)
}

func TestNewLoginRequest(t *testing.T) {
	req := NewLoginRequest(testCredentials())

	if req.URL != "https://erp.example.com/ERPTest/api/v2/odata/EPIC06/Ice.Lib.SessionModSvc/Login" {
		t.Errorf("unexpected URL %q", req.URL)
	}
	if req.Body != nil {
		t.Errorf("expected no body, got %s", req.Body)
	}
	if req.Header.Get("Content-Type") != "" {
		t.Error("expected no Content-Type without a body")
	}
	assertCommonHeaders(t, req)
}

func TestNewLogoutRequest(t *testing.T) {
	req := NewLogoutRequest(testCredentials(), "tok-1")

	if req.URL != "https://erp.example.com/ERPTest/api/v2/odata/EPIC06/Ice.Lib.AdminSessionSvc/DeleteSessionByID" {
		t.Errorf("unexpected URL %q", req.URL)
	}
	if string(req.Body) != `{"sessionId":"tok-1"}` {
		t.Errorf("unexpected body %s", req.Body)
	}
	if got := req.Header.Get("License"); got != `{"ClaimedLicense":"lic-guid","SessionID":"tok-1"}` {
		t.Errorf("unexpected license header %s", got)
	}
}

func TestNewQueryRequest(t *testing.T) {
	req := NewQueryRequest(testCredentials(), "tok-1", http.MethodGet, "CustomerList", "zipCode=90210&b=2")

	want := "https://erp.example.com/ERPTest/api/v2/odata/EPIC06/BaqSvc/CustomerList/Data?zipCode=90210&b=2"
	if req.URL != want {
		t.Errorf("expected URL %q, got %q", want, req.URL)
	}
	if req.Body != nil {
		t.Errorf("expected no body, got %s", req.Body)
	}
	if got := req.Header.Get("License"); got != `{"ClaimedLicense":"lic-guid","SessionID":"tok-1"}` {
		t.Errorf("unexpected license header %s", got)
	}
	assertCommonHeaders(t, req)

	noQuery := NewQueryRequest(testCredentials(), "tok-1", http.MethodGet, "CustomerList", "")
	if noQuery.URL != "https://erp.example.com/ERPTest/api/v2/odata/EPIC06/BaqSvc/CustomerList/Data" {
		t.Errorf("expected no trailing '?', got %q", noQuery.URL)
	}
}

func TestNewFunctionRequest(t *testing.T) {
	payload := []byte(`{ "a" : 1 ,"b":[true]}`)
	req := NewFunctionRequest(testCredentials(), "tok-1", "OrderLib", "CreateOrder", payload)

	if req.URL != "https://erp.example.com/ERPTest/api/v2/efx/EPIC06/OrderLib/CreateOrder" {
		t.Errorf("unexpected URL %q", req.URL)
	}
	if string(req.Body) != string(payload) {
		t.Errorf("expected body forwarded byte for byte, got %s", req.Body)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON content type, got %q", req.Header.Get("Content-Type"))
	}
	assertCommonHeaders(t, req)
}

func assertCommonHeaders(t *testing.T, req *Request) {
	t.Helper()
	if req.Header.Get("Authorization") != testCredentials().BasicAuth() {
		t.Errorf("unexpected Authorization %q", req.Header.Get("Authorization"))
	}
	if req.Header.Get("x-api-key") != "erp-key" {
		t.Errorf("unexpected x-api-key %q", req.Header.Get("x-api-key"))
	}
	if req.Header.Get("Accept") != "application/json" {
		t.Errorf("unexpected Accept %q", req.Header.Get("Accept"))
	}
}
