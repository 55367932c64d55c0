// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GPS2MQTT_PORT_NAME.
const EnvPrefix = "GPS2MQTT"

// SystemConfigPath is read after the file next to the executable.
const SystemConfigPath = "/usr/etc/g86-car-telemetry/gps-to-mqtt.toml"

// Config holds all application configuration values.
type Config struct {
	// Serial
	PortName     string        `mapstructure:"port_name" yaml:"port_name"`
	BaudRate     int           `mapstructure:"baud_rate" yaml:"baud_rate"`
	SetGPSTo10Hz bool          `mapstructure:"set_gps_to_10hz" yaml:"set_gps_to_10hz"`
	SerialDriver string        `mapstructure:"serial_driver" yaml:"serial_driver"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// MQTT
	MQTTHost           string        `mapstructure:"mqtt_host" yaml:"mqtt_host"`
	MQTTPort           int           `mapstructure:"mqtt_port" yaml:"mqtt_port"`
	MQTTBaseTopic      string        `mapstructure:"mqtt_base_topic" yaml:"mqtt_base_topic"`
	MQTTClientID       string        `mapstructure:"mqtt_client_id" yaml:"mqtt_client_id"`
	MQTTUsername       string        `mapstructure:"mqtt_username" yaml:"mqtt_username"`
	MQTTPassword       string        `mapstructure:"mqtt_password" yaml:"mqtt_password"`
	MQTTConnectTimeout time.Duration `mapstructure:"mqtt_connect_timeout" yaml:"mqtt_connect_timeout"`
	MQTTPublishTimeout time.Duration `mapstructure:"mqtt_publish_timeout" yaml:"mqtt_publish_timeout"`
	MQTTQoS            int           `mapstructure:"mqtt_qos" yaml:"mqtt_qos"`
	// DateTopic is absolute; it does not get the base topic prefix.
	DateTopic string `mapstructure:"date_topic" yaml:"date_topic"`

	// Reconnect
	ReconnectDelay         time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	LongReconnectDelay     time.Duration `mapstructure:"long_reconnect_delay" yaml:"long_reconnect_delay"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures" yaml:"max_consecutive_failures"`

	VerifyChecksum bool   `mapstructure:"verify_checksum" yaml:"verify_checksum"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat      string `mapstructure:"log_format" yaml:"log_format"`

	// Monitor
	MonitorAddr string `mapstructure:"monitor_addr" yaml:"monitor_addr"`

	// Display
	DisplayEnabled bool          `mapstructure:"display_enabled" yaml:"display_enabled"`
	DisplayI2CBus  string        `mapstructure:"display_i2c_bus" yaml:"display_i2c_bus"`
	DisplayRefresh time.Duration `mapstructure:"display_refresh" yaml:"display_refresh"`

	// Source lists the files that were read, in order.
	Source []string `mapstructure:"-" yaml:"-"`
}

var defaults = map[string]any{
	"port_name":                "/dev/ttyACM0",
	"baud_rate":                9600,
	"set_gps_to_10hz":          false,
	"serial_driver":            "jacobsa",
	"read_timeout":             5 * time.Second,
	"mqtt_host":                "localhost",
	"mqtt_port":                1883,
	"mqtt_base_topic":          "/GOLF86/GPS/",
	"mqtt_client_id":           "",
	"mqtt_username":            "",
	"mqtt_password":            "",
	"mqtt_connect_timeout":     5 * time.Second,
	"mqtt_publish_timeout":     5 * time.Second,
	"mqtt_qos":                 0,
	"date_topic":               "/GOLF86/GPS/DTE",
	"reconnect_delay":          time.Second,
	"long_reconnect_delay":     10 * time.Second,
	"max_consecutive_failures": 3,
	"verify_checksum":          false,
	"log_level":                "info",
	"log_format":               "console",
	"monitor_addr":             "",
	"display_enabled":          false,
	"display_i2c_bus":          "",
	"display_refresh":          500 * time.Millisecond,
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// SearchPaths returns the files tried when no explicit path is given.
// Later files override earlier ones.
func SearchPaths() []string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "settings.toml"))
	}
	return append(paths, SystemConfigPath)
}

// Load builds the configuration from defaults, the config file(s),
// GPS2MQTT_* environment variables and flags, in increasing precedence.
// An explicit configPath must be readable; the search paths are optional.
// Flags whose name matches a key with '-' for '_' are bound to that key.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var sources []string
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		sources = append(sources, configPath)
	} else {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", p, err)
			}
			sources = append(sources, p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults[key]; known && bindErr == nil {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Source = sources

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.PortName == "" {
		errs = append(errs, errors.New("port_name is required"))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate))
	}
	switch c.SerialDriver {
	case "jacobsa", "tarm":
	default:
		errs = append(errs, fmt.Errorf("serial_driver must be jacobsa or tarm, got %q", c.SerialDriver))
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("read_timeout must not be negative, got %s", c.ReadTimeout))
	}
	if c.MQTTHost == "" {
		errs = append(errs, errors.New("mqtt_host is required"))
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		errs = append(errs, fmt.Errorf("mqtt_port out of range: %d", c.MQTTPort))
	}
	if c.MQTTBaseTopic == "" {
		errs = append(errs, errors.New("mqtt_base_topic is required"))
	}
	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt_qos must be 0, 1 or 2, got %d", c.MQTTQoS))
	}
	if c.DateTopic == "" {
		errs = append(errs, errors.New("date_topic is required"))
	}
	if c.ReconnectDelay <= 0 || c.LongReconnectDelay <= 0 {
		errs = append(errs, errors.New("reconnect delays must be positive"))
	}
	if c.MaxConsecutiveFailures <= 0 {
		errs = append(errs, fmt.Errorf("max_consecutive_failures must be positive, got %d", c.MaxConsecutiveFailures))
	}
	if c.DisplayEnabled && c.DisplayRefresh <= 0 {
		errs = append(errs, errors.New("display_refresh must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Broker returns the paho broker URL.
func (c *Config) Broker() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTHost, c.MQTTPort)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.MQTTPassword != "" {
		out.MQTTPassword = "********"
	}
	return out
}

// InitGlobal initializes the global configuration.
// Only the first call has any effect.
func InitGlobal(configPath string, flags *pflag.FlagSet) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath, flags)
	})
	return err
}

// Get returns the global configuration, nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
