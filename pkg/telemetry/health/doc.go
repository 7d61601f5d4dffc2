// Package health implements the liveness and readiness probes.
//
// Liveness only reports that the process is serving. Readiness runs the
// registered checks concurrently, each under its own timeout:
//
//	session   critical  a session token is held
//	upstream  advisory  the ERP client has not marked the host unreachable
//	catalog   advisory  at least one query or function is exposed
//
// A failing critical check answers 503 with status "not_ready"; failing
// advisory checks answer 200 with status "degraded".
package health
