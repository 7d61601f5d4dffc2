// Package bridge forwards BAQ queries and function calls to Epicor under
// the shared integration session and classifies the outcome.
//
// Every operation first asks the SessionProvider for a validated session;
// no downstream call is made without one. Downstream statuses map to a
// Result as follows:
//
//	200            Success       queries return only the "value" member
//	400            ClientError   queries return only the "value" member
//	anything else  Success       whole body, or UpstreamError with StrictStatus
//	no response    UpstreamError generic message, never the transport error
//
// A SessionError from the provider becomes Unauthorized.
package bridge
