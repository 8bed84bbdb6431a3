package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigAppliesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
logs:
  level: debug
server:
  port: 9090
storage:
  hostname: postgres.internal
  port: 5432
  username: anemone
  password: hunter2
  database: devices
monitoring:
  sweep_frequency: "*/30 * * * * *"
  heartbeat_staleness: 45s
`)
	t.Setenv(config.ConfigFileEnvVar, path)

	conf, err := config.LoadConfig[config.DeviceManagerConfig](config.DeviceManagerDefaults())
	assert.NoError(t, err)

	assert.Equal(t, config.Debug, conf.Logs.Level)
	assert.Equal(t, 9090, conf.Server.Port)
	assert.Equal(t, "postgres.internal", conf.Storage.Hostname)
	assert.Equal(t, "hunter2", string(conf.Storage.Password))
	assert.Equal(t, "*/30 * * * * *", conf.Monitoring.SweepFrequency)
	assert.Equal(t, 45*time.Second, conf.Monitoring.HeartbeatStaleness)

	// Untouched settings keep their defaults.
	assert.Equal(t, "0.0.0.0", conf.Server.ListenAddress)
	assert.Equal(t, config.LocalFilesystem, conf.BlobStorage.Provider)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(config.ConfigFileEnvVar, filepath.Join(t.TempDir(), "nope.yml"))

	_, err := config.LoadConfig[config.DeviceManagerConfig](config.DeviceManagerDefaults())
	assert.Error(t, err)
}

func TestPasswordNeverMarshalsInClear(t *testing.T) {
	password := config.Password("hunter2")

	redacted, err := password.MarshalText()
	assert.NoError(t, err)
	assert.NotContains(t, string(redacted), "hunter2")
}
