package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/optimization"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, optimization.ProfileDefault, cfg.Profile)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "bath.db", cfg.SQLitePath)
	assert.Equal(t, uint64(0), cfg.Seed)
	assert.Equal(t, optimization.DefaultConfig().TickHz, cfg.Tuning.TickHz)
}

func TestLoadEnvOverridesProfile(t *testing.T) {
	t.Setenv(EnvProfile, optimization.ProfileLow)
	t.Setenv(EnvMaxClients, "3")
	t.Setenv(EnvSeed, "42")
	t.Setenv(EnvListenAddr, "127.0.0.1:9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Tuning.MaxClients)
	assert.Equal(t, optimization.LowResourceConfig().TickHz, cfg.Tuning.TickHz)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BATH_LOG_LEVEL=debug\nBATH_TICK_HZ=120\n"), 0o600))
	// Registered so the values loaded from the file are removed afterwards.
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTickHz, "")
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvTickHz)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 120, cfg.Tuning.TickHz)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown profile":   {EnvProfile, "turbo"},
		"negative clients":  {EnvMaxClients, "-1"},
		"non numeric hz":    {EnvTickHz, "fast"},
		"bad seed":          {EnvSeed, "-5"},
		"snapshot too fast": {EnvSnapshotHz, "500"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestEmptySQLitePathDisablesPersistence(t *testing.T) {
	t.Setenv(EnvSQLitePath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.SQLitePath)
}
