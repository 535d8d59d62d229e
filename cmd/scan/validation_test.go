package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScanArgs(t *testing.T) {
	tmpDir := t.TempDir()
	rulesFile := filepath.Join(tmpDir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte("rules: []\n"), 0o644))

	tests := []struct {
		name    string
		options RunOptionsScan
		args    []string
		wantErr string
	}{
		{
			// valid: sastkit scan --rules rules.yaml --language python /path/to/target
			name:    "Valid rules and target path",
			options: RunOptionsScan{RulesFile: rulesFile, Language: "python"},
			args:    []string{tmpDir},
		},
		{
			// fail: sastkit scan /path/to/target
			name:    "Missing rules flag",
			options: RunOptionsScan{Language: "python"},
			args:    []string{tmpDir},
			wantErr: "the 'rules' flag must be specified",
		},
		{
			// fail: sastkit scan --rules /missing.yaml --language python /path
			name:    "Missing rules file",
			options: RunOptionsScan{RulesFile: filepath.Join(tmpDir, "missing.yaml"), Language: "python"},
			args:    []string{tmpDir},
			wantErr: "invalid rules file",
		},
		{
			// fail: sastkit scan --rules rules.yaml /path
			name:    "Missing language flag",
			options: RunOptionsScan{RulesFile: rulesFile},
			args:    []string{tmpDir},
			wantErr: "the 'language' flag must be specified",
		},
		{
			// fail: sastkit scan --rules rules.yaml --language python
			name:    "Missing target path",
			options: RunOptionsScan{RulesFile: rulesFile, Language: "python"},
			args:    []string{},
			wantErr: "a target path must be specified",
		},
		{
			// fail: sastkit scan --rules rules.yaml --language python a b
			name:    "Multiple target paths",
			options: RunOptionsScan{RulesFile: rulesFile, Language: "python"},
			args:    []string{tmpDir, tmpDir},
			wantErr: "only one target path",
		},
		{
			// fail: sastkit scan --rules rules.yaml --language python --format xml /path
			name:    "Unknown format",
			options: RunOptionsScan{RulesFile: rulesFile, Language: "python", Format: "xml"},
			args:    []string{tmpDir},
			wantErr: "unknown report format",
		},
		{
			// fail: --baseline pointing at a nonexistent report
			name:    "Missing baseline report",
			options: RunOptionsScan{RulesFile: rulesFile, Language: "python", Baseline: filepath.Join(tmpDir, "old.json")},
			args:    []string{tmpDir},
			wantErr: "invalid baseline report",
		},
		{
			// fail: negative workers
			name:    "Negative workers",
			options: RunOptionsScan{RulesFile: rulesFile, Language: "python", Workers: -1},
			args:    []string{tmpDir},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScanArgs(&tt.options, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
