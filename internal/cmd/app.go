package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evertrade/vendorgate/internal/config"
	"github.com/evertrade/vendorgate/internal/log"
	"github.com/evertrade/vendorgate/internal/portal"
	"github.com/evertrade/vendorgate/internal/session"
	"github.com/evertrade/vendorgate/internal/store"
)

// app holds the wired-up stack every command runs against
type app struct {
	cfg        config.Config
	logger     *log.Logger
	kv         store.KV
	sessions   *session.Store
	reconciler *session.Reconciler
	gateway    *portal.Gateway
}

// newApp loads configuration from the command's flags and builds the
// full stack: durable store, portal client, and reconciler.
func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	var logger *log.Logger
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = log.New(log.DebugConfig())
	} else {
		logger = log.New(log.Config{
			Level:  log.ParseLevel(cfg.LogLevel),
			Format: log.ParseFormat(cfg.LogFormat),
			Output: os.Stderr,
		})
	}

	return buildApp(cfg, logger)
}

// buildApp assembles the stack for an already-resolved configuration
func buildApp(cfg config.Config, logger *log.Logger) (*app, error) {
	kv, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	client := portal.NewClient(cfg.APIURL, logger).WithTimeout(cfg.Timeout)
	tokens := portal.NewTokenManager(client)
	exec := portal.NewExecutor(client, tokens, logger)
	gateway := portal.NewGateway(client, exec, tokens, logger).
		WithVerification(cfg.VerifyAttempts, cfg.VerifyDelay)
	resolver := portal.NewResolver(exec, logger)

	sessions := session.NewStore(kv, logger)
	reconciler := session.NewReconciler(gateway, resolver, sessions, logger).
		WithRecheckDelay(cfg.RecheckDelay)

	return &app{
		cfg:        cfg,
		logger:     logger,
		kv:         kv,
		sessions:   sessions,
		reconciler: reconciler,
		gateway:    gateway,
	}, nil
}

func openStore(cfg config.Config) (store.KV, error) {
	path := cfg.ResolvedStorePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create store directory: %w", err)
	}

	var (
		kv  store.KV
		err error
	)
	switch cfg.StoreBackend {
	case "sqlite":
		kv, err = store.OpenSQLite(path)
	default:
		kv, err = store.OpenFile(path)
	}
	if err != nil {
		return nil, err
	}

	if cfg.StorePassphrase != "" {
		kv = store.Seal(kv, cfg.StorePassphrase)
	}

	return kv, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("closing session store failed", "error", err)
	}
}
