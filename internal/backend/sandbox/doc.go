// Package sandbox implements the full file-operation contract against
// a remote execution environment reachable only through one primitive:
// execute an opaque command string and get back combined output, an
// exit code, and a truncation flag.
//
// Every operation is synthesized as a small POSIX sh snippet. File
// content never rides in command text directly: write payloads and
// edit targets travel base64-encoded and are decoded on the remote
// side, which sidesteps quoting, newline, and binary hazards. Paths
// and patterns are still shell tokens and are always single-quoted.
//
// Failure modes the caller must distinguish (missing file, existing
// file, edit target absent or ambiguous) are encoded as distinct
// process exit codes rather than parsed out of output text.
//
// Three executors ship with the package: a local sh runner, an SSH
// session runner with an SFTP transfer fast path, and a generic HTTP
// client for any service exposing the execute shape.
package sandbox
