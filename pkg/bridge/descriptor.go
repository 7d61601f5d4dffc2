package bridge

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Param is one query string parameter. Params parsed from an inbound
// request keep their original encoding and are forwarded byte for byte.
type Param struct {
	Name  string
	Value string

	raw string
}

// Query describes a BAQ call.
type Query struct {
	// ID is the BAQ identifier.
	ID string

	// Verb is the downstream HTTP method. Empty means GET.
	Verb string

	// Params are forwarded in order as the downstream query string.
	Params []Param
}

// Function describes a function library call.
type Function struct {
	Library    string
	FunctionID string

	// Body is forwarded verbatim.
	Body json.RawMessage
}

// ParseParams splits rawQuery into ordered parameters, dropping every
// occurrence of exclude. Names and values are decoded for inspection;
// the original text of each pair is kept for forwarding.
func ParseParams(rawQuery, exclude string) ([]Param, error) {
	var params []Param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, err
		}
		if name == exclude {
			continue
		}

		params = append(params, Param{Name: name, Value: value, raw: pair})
	}
	return params, nil
}

// EncodeParams renders params as a query string, preserving order.
func EncodeParams(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.raw != "" {
			parts = append(parts, p.raw)
			continue
		}
		parts = append(parts, url.QueryEscape(p.Name)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// Lookup returns the first value of name.
func Lookup(params []Param, name string) (string, bool) {
	for _, p := range params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (q Query) verb() string {
	if q.Verb == "" {
		return http.MethodGet
	}
	return strings.ToUpper(q.Verb)
}
