package config

type Config struct {
	Logger Logger `yaml:"logger"`
	Scan   Scan   `yaml:"scan"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// Scan holds the default execution limits for a run. Command-line flags
// override every field.
type Scan struct {
	Workers           int  `yaml:"workers"`
	RuleTimeoutSec    int  `yaml:"rule_timeout_seconds"`
	MaxMemoryMB       int  `yaml:"max_memory_mb"`
	MaxMatchesPerFile int  `yaml:"max_matches_per_file"`
	FailFast          bool `yaml:"fail_fast"`
}
