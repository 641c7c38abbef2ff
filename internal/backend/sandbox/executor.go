package sandbox

import "context"

// Result is what the execute primitive hands back: combined output,
// the process exit code, and whether the output was truncated by the
// substrate.
type Result struct {
	Output    string `json:"output"`
	ExitCode  int    `json:"exit_code"`
	Truncated bool   `json:"truncated"`
}

// Executor runs one opaque command in the sandbox. Implementations may
// be network-bound; they honor ctx for timeout and cancellation and
// return an error only for transport failures, never for non-zero
// exit codes.
type Executor interface {
	Execute(ctx context.Context, command string) (Result, error)
}

// Transferer is an optional executor capability for moving file bytes
// without synthesizing base64 pipelines, e.g. over SFTP. The sandbox
// uses it as a fast path for batch upload and download.
type Transferer interface {
	Put(ctx context.Context, path string, data []byte) error
	Fetch(ctx context.Context, path string) ([]byte, error)
}
