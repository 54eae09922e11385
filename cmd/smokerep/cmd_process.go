package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smokerep/smokerep/telemetry"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <build-log>",
	Short: "Extract reports from a complete build log",
	Long: `Process reads a finished build log, extracts one install/test
outcome per distribution, and writes each outcome as a JSON report
file into the report directory.

The report directory must exist before the first event is processed.
Parse-level problems (unsupported locator schemes, unresolvable or
reserved authors, reserved Local- labels) skip the event and continue;
store-level problems abort the run.`,
	Example: `  smokerep process build.log --reports ./reports
  smokerep process - --reports ./reports               # read log from stdin
  smokerep process build.log -r ./reports --journal ./journal
  smokerep process build.log --config smokerep.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	addPipelineFlags(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger("smokerep", flagDebug, opts.Quiet)

	p, cleanup, err := buildPipeline(opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var in io.Reader
	if args[0] == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(args[0]) // #nosec G304 -- path is intentional user input
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.Run(ctx, in); err != nil {
		return err
	}

	stats := p.Stats()
	logger.Info().
		Int("written", stats.Written).
		Int("skipped", stats.Skipped).
		Msg("run complete")
	return nil
}
