package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// ValidateConfigPath checks that the given path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes a YAML file into the provided structure.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// NewConfig loads the application configuration from a YAML file and applies
// defaults for every unset limit.
func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, err
	}
	applyDefaults(config)

	return config, nil
}

// Default returns a configuration with every limit at its default value,
// used when no config file is supplied.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}
