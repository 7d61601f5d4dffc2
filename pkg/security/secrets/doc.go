// Package secrets resolves ${secret:name} references in credential fields
// of the gateway configuration.
//
// A reference is looked up in each provider in order; the first provider
// that knows the name wins. Two providers exist:
//
//   - FileProvider reads one file per secret from a directory, the layout
//     Kubernetes and Docker use for mounted secrets. Files must not be
//     readable by group or others.
//   - EnvProvider reads EPICORBRIDGE_SECRET_<NAME>, with the name upper
//     cased and hyphens replaced by underscores.
//
// Resolution happens once at startup, before any component is built:
//
//	resolver := secrets.FromConfig(cfg.Secrets, logger)
//	if err := resolver.ResolveConfig(ctx, cfg); err != nil {
//		return err
//	}
//
// Values never appear in logs; names are shortened to their first and last
// two characters.
package secrets
