package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

type testTable struct{}

func (testTable) Header() []string { return []string{"name", "value"} }

func (testTable) Rows() [][]string {
	return [][]string{{"a", "1"}, {"b,c", "2"}}
}

func TestTextFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "test message"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "test message\n" {
		t.Errorf("expected %q, got %q", "test message\n", buf.String())
	}

	buf.Reset()
	if err := (&TextFormatter{}).FormatTo(buf, testTable{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "a\t1\nb,c\t2\n" {
		t.Errorf("unexpected table output %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := map[string]string{"test": "value"}

	if err := (&JSONFormatter{Indent: true}).FormatTo(buf, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("produced invalid JSON: %v", err)
	}
	if result["test"] != "value" {
		t.Errorf("expected %v, got %v", data, result)
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&CSVFormatter{}).FormatTo(buf, testTable{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "name,value\na,1\n\"b,c\",2\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}

	if err := (&CSVFormatter{}).FormatTo(buf, "not a table"); err == nil {
		t.Error("expected error for non-table data")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		if got := fmt.Sprintf("%T", NewFormatter(tt.format)); got != tt.want {
			t.Errorf("NewFormatter(%q): expected %s, got %s", tt.format, tt.want, got)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatText, "text": FormatText, "json": FormatJSON, "csv": FormatCSV} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
