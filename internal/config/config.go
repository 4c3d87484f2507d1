package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/jubilantx-labs/jubilantx/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys understood by the CLI.
const (
	KeyModel         = "model"
	KeyJujuBinary    = "juju_binary"
	KeyWaitTimeout   = "wait_timeout"
	KeyExtensionsDir = "extensions_dir"
)

const (
	DefaultJujuBinary  = "juju"
	DefaultWaitTimeout = 3 * time.Minute
)

// Keys returns the known configuration keys, sorted.
func Keys() []string {
	keys := []string{KeyModel, KeyJujuBinary, KeyWaitTimeout, KeyExtensionsDir}
	slices.Sort(keys)
	return keys
}

// Dir returns the path to the config directory (~/.jubilantx/). The
// JUBILANTX_HOME environment variable overrides it.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.jubilantx/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyJujuBinary, DefaultJujuBinary)
	viper.SetDefault(KeyWaitTimeout, DefaultWaitTimeout.String())
	viper.SetDefault(KeyExtensionsDir, filepath.Join(Dir(), "extensions"))

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Model returns the juju model deployments go to. Empty means the current
// model.
func Model() string { return viper.GetString(KeyModel) }

// JujuBinary returns the juju executable name or path.
func JujuBinary() string {
	if b := viper.GetString(KeyJujuBinary); b != "" {
		return b
	}
	return DefaultJujuBinary
}

// WaitTimeout returns how long juju commands may run. An unparsable value
// falls back to DefaultWaitTimeout.
func WaitTimeout() time.Duration {
	d := viper.GetDuration(KeyWaitTimeout)
	if d <= 0 {
		return DefaultWaitTimeout
	}
	return d
}

// ExtensionsDir returns the user-level manifest directory.
func ExtensionsDir() string {
	if dir := viper.GetString(KeyExtensionsDir); dir != "" {
		return dir
	}
	return filepath.Join(Dir(), "extensions")
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("unknown config key %q (known keys: %v)", key, Keys())
	}
	if key == KeyWaitTimeout {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
