// Package tls serves the gateway listener over TLS.
//
// The server certificate is held by a Reloader, which re-reads the
// certificate and key whenever either file's modification time changes, so
// renewed certificates are picked up without a restart. A reload that
// fails keeps the previous certificate.
//
// Client certificates are verified when server.tls.client_ca_file is set.
package tls
