// Package config loads server settings from an optional .env file and BATH_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/optimization"
)

// Environment variable names.
const (
	EnvProfile      = "BATH_PROFILE"
	EnvListenAddr   = "BATH_LISTEN_ADDR"
	EnvSQLitePath   = "BATH_SQLITE_PATH"
	EnvLogLevel     = "BATH_LOG_LEVEL"
	EnvSeed         = "BATH_SEED"
	EnvTickHz       = "BATH_TICK_HZ"
	EnvSnapshotHz   = "BATH_SNAPSHOT_HZ"
	EnvEventBuffer  = "BATH_EVENT_BUFFER"
	EnvSendBuffer   = "BATH_SEND_BUFFER"
	EnvMaxActions   = "BATH_MAX_ACTIONS_PER_SEC"
	EnvMaxClients   = "BATH_MAX_CLIENTS"
	defaultAddr     = ":8080"
	defaultSQLite   = "bath.db"
	defaultLogLevel = "info"
)

// Config is the full server configuration.
type Config struct {
	Profile    string
	ListenAddr string
	SQLitePath string // empty disables persistence
	LogLevel   string
	Seed       uint64 // 0 seeds every run from the clock

	Tuning *optimization.Config
}

// Load reads envFile when it exists, then the environment, over the selected profile.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	profile := getEnv(EnvProfile, optimization.ProfileDefault)
	tuning, ok := optimization.ForProfile(profile)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", profile)
	}

	cfg := &Config{
		Profile:    profile,
		ListenAddr: getEnv(EnvListenAddr, defaultAddr),
		SQLitePath: getEnv(EnvSQLitePath, defaultSQLite),
		LogLevel:   getEnv(EnvLogLevel, defaultLogLevel),
		Tuning:     tuning,
	}
	if v, set := os.LookupEnv(EnvSQLitePath); set && v == "" {
		cfg.SQLitePath = ""
	}

	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}

	overrides := []struct {
		name string
		dst  *int
	}{
		{EnvTickHz, &tuning.TickHz},
		{EnvSnapshotHz, &tuning.SnapshotHz},
		{EnvEventBuffer, &tuning.EventChannelBuffer},
		{EnvSendBuffer, &tuning.ClientSendBuffer},
		{EnvMaxActions, &tuning.MaxActionsPerSecond},
		{EnvMaxClients, &tuning.MaxClients},
	}
	for _, o := range overrides {
		if err := positiveInt(o.name, o.dst); err != nil {
			return nil, err
		}
	}

	if tuning.SnapshotHz > tuning.TickHz {
		return nil, fmt.Errorf("%s (%d) cannot exceed %s (%d)", EnvSnapshotHz, tuning.SnapshotHz, EnvTickHz, tuning.TickHz)
	}
	return cfg, nil
}

// GetEnvVariable returns a required variable.
func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}
	return b, nil
}

func getEnv(name, fallback string) string {
	if v, err := GetEnvVariable(name); err == nil {
		return v
	}
	return fallback
}

func positiveInt(name string, dst *int) error {
	v, err := GetEnvVariable(name)
	if err != nil {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if n <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got %d", name, n)
	}
	*dst = n
	return nil
}
