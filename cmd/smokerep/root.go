package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	flagConfig string
	flagQuiet  bool
	flagDebug  bool

	rootCmd = &cobra.Command{
		Use:   "smokerep",
		Short: "CPAN smoke report extractor",
		Long: `Smokerep - CPAN smoke report extractor

Smokerep reads the build log of a CPAN install tool, extracts one
install/test outcome per distribution, and writes each outcome as a
JSON report file into a report directory for later analysis.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Smokerep {{.Version}} - CPAN smoke report extractor
`)
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to smokerep.yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors, silencing skip diagnostics")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}
