package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/eddielth/sensor-gate/logger"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig            `mapstructure:"server"`
	MQTT        MQTTConfig              `mapstructure:"mqtt"`
	Storage     StorageConfig           `mapstructure:"storage"`
	Ranges      RangesConfig            `mapstructure:"ranges"`
	Transformer TransformerConfig       `mapstructure:"transformer"`
	Scripts     map[string]ScriptConfig `mapstructure:"scripts"`
	Logger      LoggerConfig            `mapstructure:"logger"`
}

// ServerConfig represents the HTTP ingress configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	SinkTimeout  time.Duration `mapstructure:"sink_timeout"`
}

// MQTTConfig represents the publish sink configuration
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
	Retain   bool   `mapstructure:"retain"`
}

// RangesConfig represents the acceptable bounds for each measurement kind
type RangesConfig struct {
	TempMin     float64 `mapstructure:"temp_min"`
	TempMax     float64 `mapstructure:"temp_max"`
	PressureMin float64 `mapstructure:"pressure_min"`
	PressureMax float64 `mapstructure:"pressure_max"`
	HumidityMin float64 `mapstructure:"humidity_min"`
	HumidityMax float64 `mapstructure:"humidity_max"`
}

// TransformerConfig represents the transformation pipeline configuration
type TransformerConfig struct {
	Strict bool `mapstructure:"strict"`
}

// ScriptConfig represents a firmware payload preprocessor script
type ScriptConfig struct {
	ScriptPath string `mapstructure:"script_path"`
	ScriptCode string `mapstructure:"script_code"`
}

// LoggerConfig represents the logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// StorageConfig represents the storage sink configuration
type StorageConfig struct {
	File     FileStorageConfig     `mapstructure:"file"`
	Database DatabaseStorageConfig `mapstructure:"database"`
}

// FileStorageConfig represents the file backend configuration
type FileStorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DatabaseStorageConfig represents the database backend configuration
type DatabaseStorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"`
	DSN     string `mapstructure:"dsn"`
}

// ConfigChangeCallback is called when the configuration file changes
type ConfigChangeCallback func(cfg *Config) error

// setDefaults registers the default value for every configuration key
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.sink_timeout", 10*time.Second)

	v.SetDefault("mqtt.topic", "sensor_data")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retain", true)

	v.SetDefault("ranges.temp_min", -50.0)
	v.SetDefault("ranges.temp_max", 85.0)
	v.SetDefault("ranges.pressure_min", 300.0)
	v.SetDefault("ranges.pressure_max", 1100.0)
	v.SetDefault("ranges.humidity_min", 0.0)
	v.SetDefault("ranges.humidity_max", 100.0)

	v.SetDefault("transformer.strict", true)

	v.SetDefault("logger.level", "INFO")
	v.SetDefault("logger.file_path", "./logs/sensor-gate.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.console", true)
}

// LoadConfig loads the configuration file from the given path.
// Environment variables prefixed with SENSOR_GATE_ override file values,
// e.g. SENSOR_GATE_SERVER_PASSWORD overrides server.password.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SENSOR_GATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the invariants the configuration sources do not enforce
func (c *Config) Validate() error {
	pairs := []struct {
		name     string
		min, max float64
	}{
		{"temp", c.Ranges.TempMin, c.Ranges.TempMax},
		{"pressure", c.Ranges.PressureMin, c.Ranges.PressureMax},
		{"humidity", c.Ranges.HumidityMin, c.Ranges.HumidityMax},
	}
	for _, p := range pairs {
		if p.min > p.max {
			return fmt.Errorf("invalid %s range: min %v is greater than max %v", p.name, p.min, p.max)
		}
	}

	if c.Server.Username == "" || c.Server.Password == "" {
		return fmt.Errorf("server.username and server.password must be configured")
	}

	if c.MQTT.Broker != "" && c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos %d, must be 0, 1 or 2", c.MQTT.QoS)
	}

	return nil
}

// WatchConfig watches the configuration file and calls the callback on change.
// Only firmware scripts and the log level are hot-reloadable; server and sink
// changes take effect after a restart.
func WatchConfig(configPath string, callback ConfigChangeCallback) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	viper.SetConfigFile(absPath)
	viper.WatchConfig()

	// Debounce: editors tend to fire several write events per save
	var lastChangeTime time.Time
	debounceInterval := 2 * time.Second

	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&fsnotify.Write != fsnotify.Write {
			return
		}

		now := time.Now()
		if now.Sub(lastChangeTime) < debounceInterval {
			return
		}
		lastChangeTime = now

		logger.Info("configuration file changed: %s", e.Name)

		var newConfig Config
		if err := viper.Unmarshal(&newConfig); err != nil {
			logger.Error("failed to parse updated configuration: %v", err)
			return
		}

		if err := newConfig.Validate(); err != nil {
			logger.Error("updated configuration is invalid, keeping the current one: %v", err)
			return
		}

		if err := callback(&newConfig); err != nil {
			logger.Error("failed to apply updated configuration: %v", err)
			return
		}

		logger.Info("configuration reloaded")
	})

	return nil
}
