package scan

import (
	"fmt"

	"github.com/sastkit/sastkit/pkg/shared/files"
)

// validateScanArgs checks the scan command arguments for correctness.
func validateScanArgs(options *RunOptionsScan, args []string) error {
	if options.RulesFile == "" {
		return fmt.Errorf("the 'rules' flag must be specified")
	}
	rulesPath, err := files.ExpandPath(options.RulesFile)
	if err != nil {
		return fmt.Errorf("invalid rules file: %w", err)
	}
	options.RulesFile = rulesPath
	if err := files.ValidatePath(options.RulesFile); err != nil {
		return fmt.Errorf("invalid rules file: %w", err)
	}
	if options.Language == "" {
		return fmt.Errorf("the 'language' flag must be specified")
	}
	if len(args) == 0 {
		return fmt.Errorf("a target path must be specified")
	}
	if len(args) > 1 {
		return fmt.Errorf("only one target path may be specified, got %d", len(args))
	}
	switch options.Format {
	case "", "json", "sarif":
	default:
		return fmt.Errorf("unknown report format %q, expected json or sarif", options.Format)
	}
	if options.Baseline != "" {
		baselinePath, err := files.ExpandPath(options.Baseline)
		if err != nil {
			return fmt.Errorf("invalid baseline report: %w", err)
		}
		options.Baseline = baselinePath
		if err := files.ValidatePath(options.Baseline); err != nil {
			return fmt.Errorf("invalid baseline report: %w", err)
		}
	}
	if options.Workers < 0 {
		return fmt.Errorf("the 'workers' flag must not be negative")
	}
	return nil
}
