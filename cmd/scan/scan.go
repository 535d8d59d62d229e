package scan

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sastkit/sastkit/internal/baseline"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/runner"
	"github.com/sastkit/sastkit/pkg/shared"
	"github.com/sastkit/sastkit/pkg/shared/config"
	"github.com/sastkit/sastkit/pkg/shared/logger"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	RulesFile   string
	Language    string
	Baseline    string
	Workers     int
	TimeoutSec  int
	MaxMemoryMB int
	MaxMatches  int
	FailFast    bool
	Explain     bool
	Format      string
	OutputPath  string
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Running the python rules of a rule file against a source tree
  sastkit scan --rules /path/to/rules.yaml --language python /path/to/my_project

  # Running with four workers and a 10 second per-rule timeout
  sastkit scan --rules /path/to/rules.yaml --language python -j 4 --timeout 10 /path/to/my_project

  # Producing a SARIF report
  sastkit scan --rules /path/to/rules.yaml --language python --format sarif --output result.sarif /path/to/my_project

  # Aborting on the first failure instead of recording per-target errors
  sastkit scan --rules /path/to/rules.yaml --language python --fail-fast /path/to/my_project

  # Reporting only findings that are new since a previous run
  sastkit scan --rules /path/to/rules.yaml --language python --baseline old-result.json /path/to/my_project`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan --rules/-r PATH --language/-l LANG [-j WORKERS] [--timeout SECONDS] [--max-memory MB] [--max-matches N] [--fail-fast] [--format json|sarif] [--output PATH] TARGET_PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Runs every applicable rule of a rule file against a target tree",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	log := logger.NewLogger(AppConfig, "core-scan")

	if err := validateScanArgs(&scanOptions, args); err != nil {
		log.Error("invalid scan arguments", "error", err)
		return err
	}

	rules, err := rule.LoadFile(scanOptions.RulesFile)
	if err != nil {
		log.Error("failed to load rules", "error", err)
		return err
	}
	for _, inv := range rules.Invalid {
		log.Warn("rule rejected by the rule compiler", "rule", inv.ID, "reason", inv.Reason)
	}

	opts := resolveRunnerOptions(&scanOptions, AppConfig, args[0])
	opts.Logger = log

	final, err := runner.Run(context.Background(), opts, rules, nil)
	if err != nil {
		log.Error("scan failed", "error", err)
		return err
	}

	if scanOptions.Baseline != "" {
		if err := baseline.Apply(final, scanOptions.Baseline, log); err != nil {
			log.Error("failed to apply baseline", "error", err)
			return err
		}
	}

	if err := writeResult(final, &scanOptions, log); err != nil {
		log.Error("failed to write result", "error", err)
		return err
	}

	log.Info("scan command completed successfully")
	return nil
}

// resolveRunnerOptions merges command-line flags with config-file defaults;
// an unset flag falls back to the configured value.
func resolveRunnerOptions(o *RunOptionsScan, cfg *config.Config, scanRoot string) runner.Options {
	opts := runner.Options{
		Workers:           o.Workers,
		RuleTimeout:       time.Duration(o.TimeoutSec) * time.Second,
		MemoryMB:          o.MaxMemoryMB,
		MaxMatchesPerFile: o.MaxMatches,
		FailFast:          o.FailFast,
		Explain:           o.Explain,
		ScanRoot:          scanRoot,
		Language:          o.Language,
	}
	if cfg == nil {
		return opts
	}
	if opts.Workers == 0 {
		opts.Workers = cfg.Scan.Workers
	}
	if o.TimeoutSec == 0 {
		opts.RuleTimeout = time.Duration(cfg.Scan.RuleTimeoutSec) * time.Second
	}
	if opts.MemoryMB == 0 {
		opts.MemoryMB = cfg.Scan.MaxMemoryMB
	}
	if opts.MaxMatchesPerFile == 0 {
		opts.MaxMatchesPerFile = cfg.Scan.MaxMatchesPerFile
	}
	if !opts.FailFast {
		opts.FailFast = cfg.Scan.FailFast
	}
	return opts
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().StringVarP(&scanOptions.RulesFile, "rules", "r", "", "Path to the YAML rule file to run.")
	ScanCmd.Flags().StringVarP(&scanOptions.Language, "language", "l", "", "Language of the targets to discover (e.g., python, go).")
	ScanCmd.Flags().IntVarP(&scanOptions.Workers, "workers", "j", 0, "Number of concurrent workers to use.")
	ScanCmd.Flags().IntVar(&scanOptions.TimeoutSec, "timeout", 0, "Per-rule timeout in seconds; 0 uses the configured default.")
	ScanCmd.Flags().IntVar(&scanOptions.MaxMemoryMB, "max-memory", 0, "Per-target memory ceiling in megabytes; 0 disables it.")
	ScanCmd.Flags().IntVar(&scanOptions.MaxMatches, "max-matches", 0, "Per-file match cap; files over it lose all matches.")
	ScanCmd.Flags().BoolVar(&scanOptions.FailFast, "fail-fast", false, "Abort the whole run on the first failure.")
	ScanCmd.Flags().StringVar(&scanOptions.Baseline, "baseline", "", "Path to a previous JSON report; only findings new since it are kept.")
	ScanCmd.Flags().BoolVar(&scanOptions.Explain, "explain", false, "Attach per-rule explanations to the result.")
	ScanCmd.Flags().StringVarP(&scanOptions.Format, "format", "f", "json", "Format for the report with results (json or sarif).")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to the output file; stdout when omitted.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
}
