package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	DataDir string        `yaml:"data_dir" json:"data_dir"`
	Network NetworkConfig `yaml:"network" json:"network"`
	Vault   VaultConfig   `yaml:"vault" json:"vault"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// NetworkConfig holds the guest network service configuration.
// Exactly one bridge/subnet pair is managed per machinad instance.
type NetworkConfig struct {
	BridgeName      string `yaml:"bridge_name" json:"bridge_name"`
	Subnet          string `yaml:"subnet" json:"subnet"`
	DnsmasqPath     string `yaml:"dnsmasq_path" json:"dnsmasq_path"`
	DHCPReleasePath string `yaml:"dhcp_release_path" json:"dhcp_release_path"`
	LeaseTime       string `yaml:"lease_time" json:"lease_time"`

	StartTimeout   time.Duration `yaml:"start_timeout" json:"start_timeout"`
	StopTimeout    time.Duration `yaml:"stop_timeout" json:"stop_timeout"`
	KillTimeout    time.Duration `yaml:"kill_timeout" json:"kill_timeout"`
	ReleaseTimeout time.Duration `yaml:"release_timeout" json:"release_timeout"`
	HealthInterval time.Duration `yaml:"health_interval" json:"health_interval"`
}

// VaultConfig holds image vault configuration
type VaultConfig struct {
	ImageDir  string        `yaml:"image_dir" json:"image_dir"`
	ExpiryAge time.Duration `yaml:"expiry_age" json:"expiry_age"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Output string `yaml:"output" json:"output"`
}

// DefaultConfig provides default configuration values
var DefaultConfig = Config{
	Version: "1.0",
	DataDir: "/var/lib/machina",
	Network: NetworkConfig{
		BridgeName:      "mpbr0",
		Subnet:          "10.177.0.0/24",
		DnsmasqPath:     "dnsmasq",
		DHCPReleasePath: "dhcp_release",
		LeaseTime:       "12h",
		StartTimeout:    500 * time.Millisecond,
		StopTimeout:     1 * time.Second,
		KillTimeout:     100 * time.Millisecond,
		ReleaseTimeout:  5 * time.Second,
		HealthInterval:  30 * time.Second,
	},
	Vault: VaultConfig{
		ImageDir:  "/var/lib/machina/images",
		ExpiryAge: 14 * 24 * time.Hour,
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Output: "stdout",
	},
}

// LoadConfig loads the main configuration from file and environment variables.
//  1. Path specified in MACHINA_CONFIG_PATH environment variable
//  2. /etc/machina/machina-config.yml
//  3. ./config/machina-config.yml
//  4. ./machina-config.yml
//
// Applies environment variable overrides for data dir, bridge and logging.
// Validates the final configuration before returning.
// Returns (config, configPath, error) - configPath indicates source of configuration.
func LoadConfig() (*Config, string, error) {
	config := DefaultConfig

	// Load from config file if it exists
	path, err := loadFromFile(&config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if val := os.Getenv("MACHINA_DATA_DIR"); val != "" {
		config.DataDir = val
	}
	if val := os.Getenv("MACHINA_BRIDGE_NAME"); val != "" {
		config.Network.BridgeName = val
	}
	if val := os.Getenv("MACHINA_LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}

	// Validate the configuration
	if e := config.Validate(); e != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", e)
	}

	return &config, path, nil
}

// loadFromFile loads configuration from the first available YAML file.
// Returns the path of the loaded file or "built-in defaults" if no file found.
// Does not return error if no file is found - uses defaults instead.
func loadFromFile(config *Config) (string, error) {
	configPaths := []string{
		os.Getenv("MACHINA_CONFIG_PATH"),
		"/etc/machina/machina-config.yml",
		"./config/machina-config.yml",
		"./machina-config.yml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults", nil
}

// Validate checks the configuration for fields the service cannot run without
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.Network.BridgeName == "" {
		return fmt.Errorf("network.bridge_name cannot be empty")
	}
	if _, _, err := net.ParseCIDR(c.Network.Subnet); err != nil {
		return fmt.Errorf("network.subnet %q is not a valid CIDR: %w", c.Network.Subnet, err)
	}
	if c.Network.DnsmasqPath == "" {
		return fmt.Errorf("network.dnsmasq_path cannot be empty")
	}
	if c.Network.StartTimeout <= 0 {
		return fmt.Errorf("network.start_timeout must be positive")
	}
	if c.Network.StopTimeout <= 0 || c.Network.KillTimeout <= 0 {
		return fmt.Errorf("network stop/kill timeouts must be positive")
	}
	if c.Network.ReleaseTimeout <= 0 {
		return fmt.Errorf("network.release_timeout must be positive")
	}
	if c.Vault.ImageDir == "" {
		return fmt.Errorf("vault.image_dir cannot be empty")
	}
	return nil
}
