// Package backend defines the file-operation contract every substrate
// implements: list, read, write, edit, grep, and glob, with the result
// shapes and error taxonomy callers rely on.
//
// The package also holds the shared helpers (read formatting, literal
// edit, tree-shaped list/grep/glob) that guarantee identical semantics
// across the in-memory, durable-store, and sandbox implementations.
// Callers hold a Backend interface value and never see which substrate
// is behind it.
package backend
