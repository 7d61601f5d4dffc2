// Package handlers implements the /api/v1 routes of the gateway.
//
// Catalog routes resolve a public name through the catalog before any
// ERP call; unknown names answer 404 and missing required parameters 400.
// Passthrough routes address BAQs and functions by their ERP identifiers
// and are only registered when enabled.
//
// Results render as:
//
//	Success        200  ERP payload
//	ClientError    400  ERP payload
//	Unauthorized   401  error envelope
//	UpstreamError  502  error envelope, 504 when the deadline expired
package handlers
