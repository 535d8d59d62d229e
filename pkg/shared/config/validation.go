package config

import "fmt"

const (
	DefaultWorkers           = 1
	DefaultRuleTimeoutSec    = 30
	DefaultMaxMemoryMB       = 0 // disabled
	DefaultMaxMatchesPerFile = 10000
)

// ValidateConfig checks that the loaded configuration has usable values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("YAML global config: scan.workers must not be negative, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.MaxMemoryMB < 0 {
		return fmt.Errorf("YAML global config: scan.max_memory_mb must not be negative, got %d", cfg.Scan.MaxMemoryMB)
	}
	if cfg.Scan.MaxMatchesPerFile < 0 {
		return fmt.Errorf("YAML global config: scan.max_matches_per_file must not be negative, got %d", cfg.Scan.MaxMatchesPerFile)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = DefaultWorkers
	}
	if cfg.Scan.RuleTimeoutSec == 0 {
		cfg.Scan.RuleTimeoutSec = DefaultRuleTimeoutSec
	}
	if cfg.Scan.MaxMatchesPerFile == 0 {
		cfg.Scan.MaxMatchesPerFile = DefaultMaxMatchesPerFile
	}
}
