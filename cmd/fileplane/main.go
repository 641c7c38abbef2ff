// Command fileplane serves the file-operation contract over HTTP,
// backed by one of the three substrates selected in configuration.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/fileplane/fileplane/internal/backend"
	"github.com/fileplane/fileplane/internal/backend/memory"
	"github.com/fileplane/fileplane/internal/backend/sandbox"
	"github.com/fileplane/fileplane/internal/backend/store"
	"github.com/fileplane/fileplane/internal/config"
	"github.com/fileplane/fileplane/internal/file"
	"github.com/fileplane/fileplane/internal/logging"
	"github.com/fileplane/fileplane/internal/metrics"
	"github.com/fileplane/fileplane/internal/server"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file overlaid on the environment")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	file.SetDeprecationHandler(func(d file.Deprecation) {
		log.Warn("legacy line-array record read",
			zap.String("path", d.Path),
			zap.String("backend", d.Backend),
		)
	})

	b, cleanup, err := buildBackend(cfg, log)
	if err != nil {
		log.Fatal("backend init failed", zap.Error(err))
	}
	if cleanup != nil {
		defer cleanup()
	}

	registry := prometheus.NewRegistry()
	b = metrics.New(registry).Instrument(cfg.Backend.Kind, b)

	srv := server.New(b, log, cfg, registry)
	log.Info("fileplane ready",
		zap.String("backend", cfg.Backend.Kind),
		zap.String("port", cfg.Server.Port),
	)
	if err := srv.Run(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// buildBackend constructs the configured substrate. The returned
// cleanup closes any underlying resource (the SQLite handle, the SSH
// connection) and may be nil.
func buildBackend(cfg *config.Config, log *zap.Logger) (backend.Backend, func(), error) {
	bc := cfg.Backend
	switch bc.Kind {
	case "memory":
		return memory.New(nil, memory.WithLogger(log)), nil, nil

	case "store":
		kv, err := store.OpenSQLite(bc.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store %s: %w", bc.StorePath, err)
		}
		tmpl, err := store.NewTemplate(bc.Namespace...)
		if err != nil {
			kv.Close()
			return nil, nil, err
		}
		opts := []store.Option{store.WithLogger(log)}
		if bc.Compression {
			opts = append(opts, store.WithCompression())
		}
		if bc.LegacyWrites {
			opts = append(opts, store.WithLegacyWrites())
		}
		b, err := store.New(kv, tmpl, map[string]string{"tenant": bc.Tenant}, opts...)
		if err != nil {
			kv.Close()
			return nil, nil, err
		}
		return b, func() { kv.Close() }, nil

	case "sandbox":
		exec, cleanup, err := buildExecutor(bc)
		if err != nil {
			return nil, nil, err
		}
		opts := []sandbox.Option{sandbox.WithLogger(log)}
		if bc.SandboxRoot != "" {
			opts = append(opts, sandbox.WithRoot(bc.SandboxRoot))
		}
		return sandbox.New(exec, opts...), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend kind %q", bc.Kind)
	}
}

func buildExecutor(bc config.BackendConfig) (sandbox.Executor, func(), error) {
	switch bc.SandboxKind {
	case "local":
		return sandbox.NewLocalExecutor(), nil, nil

	case "ssh":
		key, err := os.ReadFile(bc.SSHKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ssh key: %w", err)
		}
		exec, err := sandbox.DialSSH(bc.SSHAddr, bc.SSHUser,
			[]ssh.AuthMethod{ssh.PublicKeys(signer)},
			ssh.InsecureIgnoreHostKey())
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", bc.SSHAddr, err)
		}
		return exec, func() { exec.Close() }, nil

	case "http":
		return sandbox.NewHTTPExecutor(bc.HTTPEndpoint), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown sandbox kind %q", bc.SandboxKind)
	}
}
