package epicor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Response is the normalized result of a downstream call.
type Response struct {
	StatusCode int
	Body       []byte
}

var errEmptyReturnObj = errors.New("login response carried no session id")

// ParseLoginToken extracts the session token from a Login response body.
// returnObj is normally a JSON string; any other non-null value is used
// as its raw JSON text.
func ParseLoginToken(body []byte) (string, error) {
	var envelope struct {
		ReturnObj json.RawMessage `json:"returnObj"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &ParseError{Op: "login", Cause: err}
	}

	raw := bytes.TrimSpace(envelope.ReturnObj)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errEmptyReturnObj
	}

	if raw[0] == '"' {
		var token string
		if err := json.Unmarshal(raw, &token); err != nil {
			return "", &ParseError{Op: "login", Cause: err}
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return "", errEmptyReturnObj
		}
		return token, nil
	}

	return string(raw), nil
}

// ExtractValue returns the "value" member of an OData response object.
// A missing member yields JSON null. Bodies that are not JSON objects
// return a ParseError.
func ExtractValue(body []byte) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ParseError{Op: "query", Cause: err}
	}
	if envelope == nil {
		return nil, &ParseError{Op: "query", Cause: fmt.Errorf("response is not a JSON object")}
	}

	v, ok := envelope["value"]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return v, nil
}
