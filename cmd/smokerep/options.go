package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokerep/smokerep/config"
	"github.com/smokerep/smokerep/history"
	"github.com/smokerep/smokerep/journal"
	"github.com/smokerep/smokerep/pipeline"
	"github.com/smokerep/smokerep/report"
	"github.com/smokerep/smokerep/store"
	"github.com/smokerep/smokerep/transport"
)

// Pipeline flags shared by process and watch
var (
	flagReports string
	flagJournal string
	flagHistory string
	flagTool    string
	flagSubmit  bool
)

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagReports, "reports", "r", "", "Report output directory (must already exist)")
	cmd.Flags().StringVar(&flagJournal, "journal", "", "Journal directory for the run audit trail")
	cmd.Flags().StringVar(&flagHistory, "history", "", "History index database path")
	cmd.Flags().StringVar(&flagTool, "tool-version", "", "Underlying install tool version for the via field")
	cmd.Flags().BoolVar(&flagSubmit, "submit", false, "Hand written reports to the submission client (stub)")
}

// options is the merged run configuration: config file values first,
// command line flags on top.
type options struct {
	ReportDir   string
	JournalDir  string
	HistoryDB   string
	ToolVersion string
	MetricsAddr string
	Quiet       bool
	Submit      bool
}

func loadOptions() (options, error) {
	var opts options

	if flagConfig != "" {
		cfg, err := config.LoadConfig(flagConfig)
		if err != nil {
			return opts, err
		}
		opts = options{
			ReportDir:   cfg.ReportDir,
			JournalDir:  cfg.JournalDir,
			HistoryDB:   cfg.HistoryDB,
			ToolVersion: cfg.ToolVersion,
			MetricsAddr: cfg.Metrics,
			Quiet:       cfg.Quiet,
		}
	}

	if flagReports != "" {
		opts.ReportDir = flagReports
	}
	if flagJournal != "" {
		opts.JournalDir = flagJournal
	}
	if flagHistory != "" {
		opts.HistoryDB = flagHistory
	}
	if flagTool != "" {
		opts.ToolVersion = flagTool
	}
	if flagQuiet {
		opts.Quiet = true
	}
	opts.Submit = flagSubmit

	if opts.ReportDir == "" {
		return opts, fmt.Errorf("report directory is required (--reports or report_dir in config)")
	}
	return opts, nil
}

// buildPipeline wires the pipeline from resolved options. The returned
// cleanup closes the journal and history handles.
func buildPipeline(opts options, logger zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	p := &pipeline.Pipeline{
		Assembler: &report.Assembler{Version: version, ToolVersion: opts.ToolVersion},
		Store:     store.New(opts.ReportDir),
		Logger:    logger,
	}

	var closers []func()

	if opts.JournalDir != "" {
		j, err := journal.Open(opts.JournalDir)
		if err != nil {
			return nil, nil, err
		}
		p.Journal = j
		closers = append(closers, func() { _ = j.Close() })
	}

	if opts.HistoryDB != "" {
		idx, err := history.Open(opts.HistoryDB)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		p.History = idx
		closers = append(closers, func() { _ = idx.Close() })
	}

	if opts.Submit {
		p.Submitter = transport.Logging{Next: transport.Nop{}, Logger: logger}
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return p, cleanup, nil
}
