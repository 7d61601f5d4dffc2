// Epicorbridge is an HTTP gateway in front of an Epicor ERP server.
//
// Callers authenticate with a gateway API key and invoke catalogued BAQ
// queries and function library entries. The gateway holds one shared
// integration session, renews it in the background, and forwards every
// call under it.
//
// Usage:
//
//	# Start the gateway
//	epicorbridge run --config /etc/epicorbridge/config.yaml
//
//	# Validate configuration and catalog
//	epicorbridge config validate --config config.yaml
//
//	# Log in once and report the result
//	epicorbridge session check
//
//	# Inspect the audit trail
//	epicorbridge audit list --limit 20 --output csv
package main

func main() {
	Execute()
}
