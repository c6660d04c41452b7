package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
server:
  username: "sensor"
  password: "secret"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.SinkTimeout)

	assert.Equal(t, "sensor_data", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.True(t, cfg.MQTT.Retain)

	assert.Equal(t, -50.0, cfg.Ranges.TempMin)
	assert.Equal(t, 85.0, cfg.Ranges.TempMax)
	assert.Equal(t, 300.0, cfg.Ranges.PressureMin)
	assert.Equal(t, 1100.0, cfg.Ranges.PressureMax)
	assert.Equal(t, 0.0, cfg.Ranges.HumidityMin)
	assert.Equal(t, 100.0, cfg.Ranges.HumidityMax)

	assert.True(t, cfg.Transformer.Strict)
	assert.Equal(t, "INFO", cfg.Logger.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  addr: ":9090"
  username: "gateway"
  password: "secret"
  sink_timeout: 3s

mqtt:
  broker: "ssl://broker.example.com:8883"
  topic: "weather/records"
  qos: 2
  retain: false

ranges:
  temp_min: -10
  temp_max: 45

transformer:
  strict: false

storage:
  database:
    enabled: true
    type: "postgresql"
    dsn: "postgres://localhost:5432/sensors"
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.SinkTimeout)
	assert.Equal(t, "weather/records", cfg.MQTT.Topic)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.False(t, cfg.MQTT.Retain)
	assert.Equal(t, -10.0, cfg.Ranges.TempMin)
	assert.Equal(t, 45.0, cfg.Ranges.TempMax)
	// Unspecified bounds keep their defaults
	assert.Equal(t, 300.0, cfg.Ranges.PressureMin)
	assert.False(t, cfg.Transformer.Strict)
	assert.True(t, cfg.Storage.Database.Enabled)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SENSOR_GATE_SERVER_PASSWORD", "from-env")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.Password)
}

func TestLoadConfigRejectsInvertedRange(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
server:
  username: "sensor"
  password: "secret"

ranges:
  humidity_min: 100
  humidity_max: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "humidity")
}

func TestLoadConfigRequiresCredentials(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
server:
  addr: ":8080"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateQoS(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Username = "u"
	cfg.Server.Password = "p"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.QoS = 3

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qos")
}
