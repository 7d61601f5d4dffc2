// Package epicor is the HTTP client for the Epicor REST API (v2).
//
// It knows the URL layout of the OData and function library endpoints and
// the authentication headers every call carries, but holds no session
// state. Callers build a Request with one of the New*Request functions and
// pass it to Client.Send, which returns the status and full body of
// whatever the server answered.
//
//	creds := epicor.CredentialsFromConfig(cfg.Epicor)
//	client := epicor.NewClient(epicor.ClientConfigFromConfig(cfg.Epicor), logger)
//	resp, err := client.Send(ctx, epicor.NewLoginRequest(creds))
//
// Errors returned by Send are always *TransportError: the call never got an
// HTTP response. Interpreting status codes is left to the caller.
package epicor
