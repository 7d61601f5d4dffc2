// Package types defines the JSON error envelope written by the gateway:
//
//	{"error": {"message": "...", "type": "...", "code": "..."}}
//
// Successful ERP payloads and downstream 400 bodies are not wrapped.
package types
