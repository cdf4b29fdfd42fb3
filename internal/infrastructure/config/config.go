package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when OHBRIDGE_CONFIG is not set.
const DefaultPath = "configs/config.yaml"

// Config is the root configuration structure for the bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge      BridgeConfig      `yaml:"bridge"`
	OpenHAB     OpenHABConfig     `yaml:"openhab"`
	Database    DatabaseConfig    `yaml:"database"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	API         APIConfig         `yaml:"api"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
	Security    SecurityConfig    `yaml:"security"`
	Accessories []AccessoryConfig `yaml:"accessories"`
}

// BridgeConfig contains the HomeKit bridge identity and HAP server settings.
type BridgeConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	// Pin is the 8-digit HomeKit setup code.
	Pin         string `yaml:"pin"`
	Port        int    `yaml:"port"`
	StoragePath string `yaml:"storage_path"`
}

// OpenHABConfig contains the openHAB REST endpoint.
type OpenHABConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Scheme  string `yaml:"scheme"`
	Token   string `yaml:"token"`
	Timeout int    `yaml:"timeout"` // seconds
}

// BaseURL returns scheme://host:port.
func (o OpenHABConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s", o.Scheme, net.JoinHostPort(o.Host, strconv.Itoa(o.Port)))
}

// RequestTimeout returns the per-request timeout as a Duration.
func (o OpenHABConfig) RequestTimeout() time.Duration {
	return time.Duration(o.Timeout) * time.Second
}

// AccessoryConfig is one accessory entry.
type AccessoryConfig struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
	Item string `yaml:"item"`
	// Inverted is kept as a string: only the literal "true" enables inversion.
	Inverted string            `yaml:"inverted"`
	Items    map[string]string `yaml:"items"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains the bearer token secret for API writes.
// An empty secret leaves write endpoints open.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: OHBRIDGE_SECTION_KEY
// For example: OHBRIDGE_OPENHAB_HOST, OHBRIDGE_DATABASE_PATH
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// PathFromEnv returns OHBRIDGE_CONFIG, or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv("OHBRIDGE_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Enabled:      true,
			Name:         "openHAB Bridge",
			Manufacturer: "openHAB",
			Model:        "ohbridge",
			Pin:          "00102003",
			Port:         51826,
			StoragePath:  "./data/hap",
		},
		OpenHAB: OpenHABConfig{
			Port:    8080,
			Scheme:  "http",
			Timeout: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/ohbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ohbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// openHAB
	if v := os.Getenv("OHBRIDGE_OPENHAB_HOST"); v != "" {
		cfg.OpenHAB.Host = v
	}
	if v := os.Getenv("OHBRIDGE_OPENHAB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.OpenHAB.Port = port
		}
	}
	if v := os.Getenv("OHBRIDGE_OPENHAB_TOKEN"); v != "" {
		cfg.OpenHAB.Token = v
	}

	// Bridge
	if v := os.Getenv("OHBRIDGE_BRIDGE_PIN"); v != "" {
		cfg.Bridge.Pin = v
	}

	// Database
	if v := os.Getenv("OHBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("OHBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("OHBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("OHBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("OHBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("OHBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security
	if v := os.Getenv("OHBRIDGE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

var pinPattern = regexp.MustCompile(`^\d{8}$`)

// Validate checks the configuration for errors.
//
// Accessory entries are not validated here: a bad entry is skipped at
// startup without stopping the bridge.
func (c *Config) Validate() error {
	var errs []string

	// openHAB
	if c.OpenHAB.Host == "" {
		errs = append(errs, "openhab.host is required (set OHBRIDGE_OPENHAB_HOST environment variable)")
	}
	if c.OpenHAB.Port < 1 || c.OpenHAB.Port > 65535 {
		errs = append(errs, "openhab.port must be between 1 and 65535")
	}
	if c.OpenHAB.Scheme != "http" && c.OpenHAB.Scheme != "https" {
		errs = append(errs, "openhab.scheme must be http or https")
	}
	if c.OpenHAB.Timeout < 1 {
		errs = append(errs, "openhab.timeout must be at least 1 second")
	}

	// Bridge
	if c.Bridge.Enabled {
		if c.Bridge.Name == "" {
			errs = append(errs, "bridge.name is required")
		}
		if !pinPattern.MatchString(c.Bridge.Pin) {
			errs = append(errs, "bridge.pin must be 8 digits")
		}
		if c.Bridge.StoragePath == "" {
			errs = append(errs, "bridge.storage_path is required")
		}
	}

	// Database
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// Security
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout returns the read timeout as a Duration.
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// WriteTimeout returns the write timeout as a Duration.
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// IdleTimeout returns the idle timeout as a Duration.
func (a APIConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
