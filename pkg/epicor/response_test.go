package epicor

import (
	"errors"
	"testing"
)

func TestParseLoginToken(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string token", body: `{"returnObj":"tok-1"}`, want: "tok-1"},
		{name: "non-string token", body: `{"returnObj":12345}`, want: "12345"},
		{name: "empty string", body: `{"returnObj":""}`, wantErr: true},
		{name: "null", body: `{"returnObj":null}`, wantErr: true},
		{name: "missing", body: `{"other":1}`, wantErr: true},
		{name: "not JSON", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLoginToken([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got token %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseLoginToken_ParseError(t *testing.T) {
	_, err := ParseLoginToken([]byte(`nope`))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if perr.Op != "login" {
		t.Errorf("expected op login, got %q", perr.Op)
	}
}

func TestExtractValue(t *testing.T) {
	got, err := ExtractValue([]byte(`{"odata.metadata":"...","value":[{"CustID":"A"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[{"CustID":"A"}]` {
		t.Errorf("expected metadata stripped, got %s", got)
	}

	got, err = ExtractValue([]byte(`{"odata.metadata":"..."}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "null" {
		t.Errorf("expected null for missing value, got %s", got)
	}

	for _, body := range []string{`[1,2]`, `null`, `not json`} {
		if _, err := ExtractValue([]byte(body)); err == nil {
			t.Errorf("expected error for body %s", body)
		}
	}
}
