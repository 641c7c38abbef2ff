package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHExecutor runs commands on a remote devbox over SSH, one session
// per call. It also implements Transferer over SFTP so batch transfers
// skip the base64 pipelines.
type SSHExecutor struct {
	client    *ssh.Client
	maxOutput int
}

// SSHOption configures an SSHExecutor.
type SSHOption func(*SSHExecutor)

// WithSSHMaxOutput caps captured output in bytes.
func WithSSHMaxOutput(n int) SSHOption {
	return func(e *SSHExecutor) { e.maxOutput = n }
}

// DialSSH connects to addr ("host:port") as user.
func DialSSH(addr, user string, auth []ssh.AuthMethod, hostKey ssh.HostKeyCallback, opts ...SSHOption) (*SSHExecutor, error) {
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKey,
	})
	if err != nil {
		return nil, fmt.Errorf("dial ssh %s: %w", addr, err)
	}
	e := &SSHExecutor{
		client:    client,
		maxOutput: defaultMaxOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close shuts down the underlying connection.
func (e *SSHExecutor) Close() error {
	return e.client.Close()
}

// Execute implements Executor.
func (e *SSHExecutor) Execute(ctx context.Context, command string) (Result, error) {
	sess, err := e.client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("ssh session: %w", err)
	}
	defer sess.Close()

	// ssh sessions have no native cancellation; closing the session
	// tears the command down when ctx fires.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			sess.Close()
		case <-done:
		}
	}()
	defer close(done)

	out, err := sess.CombinedOutput(command)
	res := Result{Output: string(out)}
	if len(res.Output) > e.maxOutput {
		res.Output = res.Output[:e.maxOutput]
		res.Truncated = true
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("ssh exec: %w", err)
	}
	return res, nil
}

// Put implements Transferer over SFTP.
func (e *SSHExecutor) Put(ctx context.Context, remotePath string, data []byte) error {
	c, err := sftp.NewClient(e.client)
	if err != nil {
		return fmt.Errorf("sftp client: %w", err)
	}
	defer c.Close()

	if err := c.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("sftp mkdir %s: %w", path.Dir(remotePath), err)
	}
	f, err := c.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp create %s: %w", remotePath, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("sftp write %s: %w", remotePath, err)
	}
	return nil
}

// Fetch implements Transferer over SFTP.
func (e *SSHExecutor) Fetch(ctx context.Context, remotePath string) ([]byte, error) {
	c, err := sftp.NewClient(e.client)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	defer c.Close()

	f, err := c.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("sftp open %s: %w", remotePath, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("sftp read %s: %w", remotePath, err)
	}
	return data, nil
}
