// Package logging builds the gateway's log/slog logger.
//
// Records are emitted as JSON, text or console output. Request ids stored
// with WithRequestID are attached to every record logged with that
// context. With RedactSecrets enabled, attributes whose key names a
// credential (password, token, api key, authorization, license, session
// id) are masked, and basic/bearer credentials or api_key query
// parameters embedded in strings and errors are replaced.
package logging
