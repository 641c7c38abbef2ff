// Package store implements the file-operation contract against a
// namespaced key/value store: one item per file, keyed by path inside
// a resolved namespace.
//
// The store has no native directory concept; List prefix-scans the
// namespace and groups keys by their next path segment. Namespaces are
// built from an ordered template of literal segments and {placeholder}
// variables resolved from caller context when the backend is
// constructed, so multiple tenants can share one store safely.
//
// Two KV implementations ship with the package: a SQLite-backed one
// for durable deployments and an in-memory one for tests and
// ephemeral runs. Values can optionally be zstd-compressed, and a
// compatibility mode keeps writing the legacy line-array record shape
// for older readers.
package store
