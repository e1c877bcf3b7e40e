package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "sikap",
		Short:         "Soft-skill analysis of recorded interview answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./configs/config.yaml or ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable development logging")

	root.AddCommand(newServeCommand(), newAnalyzeCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger returns a development logger with --verbose. Otherwise the server logs
// at info and the CLI only reports warnings, both to stderr.
func newLogger(server bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	if server {
		return zap.NewProduction()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
