package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sastkit/sastkit/cmd/scan"
	"github.com/sastkit/sastkit/cmd/version"
	"github.com/sastkit/sastkit/pkg/shared/config"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "sastkit [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Sastkit is a multi-language static-analysis rule runner.",
		Long: `Sastkit runs compiled pattern, taint, and secrets rules against source
	trees under parallel execution, per-rule timeouts, and per-target memory caps.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml when present)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(scan.ScanCmd)
}

func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		if _, statErr := os.Stat("config.yml"); statErr != nil {
			AppConfig = config.Default()
			scan.Init(AppConfig)
			return
		}
		cfgFile = "config.yml"
	}
	AppConfig, err = config.NewConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config file: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	scan.Init(AppConfig)
}
