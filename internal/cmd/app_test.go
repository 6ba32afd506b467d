package cmd

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertrade/vendorgate/internal/config"
	"github.com/evertrade/vendorgate/internal/log"
	"github.com/evertrade/vendorgate/internal/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StorePath = filepath.Join(t.TempDir(), "session.json")
	return cfg
}

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func TestOpenStoreFileBackend(t *testing.T) {
	cfg := testConfig(t)

	kv, err := openStore(cfg)
	require.NoError(t, err)
	defer kv.Close()

	assert.IsType(t, &store.FileKV{}, kv)
}

func TestOpenStoreSQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "sqlite"
	cfg.StorePath = filepath.Join(t.TempDir(), "session.db")

	kv, err := openStore(cfg)
	require.NoError(t, err)
	defer kv.Close()

	assert.IsType(t, &store.SQLiteKV{}, kv)
}

func TestOpenStoreSealsWithPassphrase(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorePassphrase = "hunter2"

	kv, err := openStore(cfg)
	require.NoError(t, err)
	defer kv.Close()

	assert.IsType(t, &store.SealedKV{}, kv)

	// Sealed values must not be readable from the raw backing store.
	require.NoError(t, kv.Set("k", "plain"))
	raw, err := store.OpenFile(cfg.StorePath)
	require.NoError(t, err)
	defer raw.Close()

	sealed, ok, err := raw.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "plain", sealed)
}

func TestOpenStoreCreatesParentDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorePath = filepath.Join(t.TempDir(), "nested", "deep", "session.json")

	kv, err := openStore(cfg)
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("k", "v"))
}

func TestBuildAppWiresStack(t *testing.T) {
	cfg := testConfig(t)

	app, err := buildApp(cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.sessions)
	assert.NotNil(t, app.reconciler)
	assert.NotNil(t, app.gateway)
	assert.False(t, app.sessions.IsAuthenticated())
}
