// Package pipeline runs the per-event chain: assemble a report, persist
// it, journal the outcome, index it, optionally submit it. Events are
// processed one at a time, in log order.
package pipeline

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/smokerep/smokerep/history"
	"github.com/smokerep/smokerep/journal"
	"github.com/smokerep/smokerep/logscan"
	"github.com/smokerep/smokerep/report"
	"github.com/smokerep/smokerep/store"
	"github.com/smokerep/smokerep/telemetry"
	"github.com/smokerep/smokerep/transport"
	"github.com/smokerep/smokerep/types"
)

// Pipeline processes distribution events. Assembler and Store are
// required; everything else is optional wiring.
type Pipeline struct {
	Assembler *report.Assembler
	Store     *store.Store
	Journal   *journal.Journal
	History   *history.Index
	Submitter transport.Submitter
	Logger    zerolog.Logger

	stats Stats
}

// Stats counts what happened to the events of one run.
type Stats struct {
	Written int
	Skipped int
}

// Stats returns the counts so far.
func (p *Pipeline) Stats() Stats { return p.stats }

// Run scans a complete build log through the pipeline. Skippable
// failures are absorbed per event; store failures abort the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) error {
	return logscan.Scan(r, func(ev types.Event) error {
		return p.Handle(ctx, ev)
	})
}

// Handle processes one event end to end.
func (p *Pipeline) Handle(ctx context.Context, ev types.Event) error {
	rep, err := p.Assembler.Assemble(ev)
	if err != nil {
		if report.IsSkip(err) {
			p.skip(ctx, ev, err)
			return nil
		}
		return err
	}

	path, err := p.Store.Persist(rep)
	if err != nil {
		// Fatal: a store failure means a setup bug or broken disk,
		// not a bad event
		if p.Journal != nil {
			_ = p.Journal.Failed(ev, err)
		}
		if telemetry.StoreFailures != nil {
			telemetry.StoreFailures.Add(ctx, 1)
		}
		p.Logger.Error().
			Err(err).
			Str("dist", ev.DistLabel).
			Msg("failed to persist report")
		return err
	}

	p.stats.Written++
	if telemetry.ReportsWritten != nil {
		telemetry.ReportsWritten.Add(ctx, 1)
	}
	if p.Journal != nil {
		_ = p.Journal.Written(ev, path)
	}
	if p.History != nil {
		if _, err := p.History.Record(rep, path); err != nil {
			p.Logger.Warn().Err(err).Str("dist", rep.Dist).Msg("failed to index report")
		}
	}

	p.Logger.Info().
		Str("dist", rep.Dist).
		Str("author", rep.Author).
		Str("grade", string(rep.Grade)).
		Str("path", path).
		Msg("report written")

	if p.Submitter != nil {
		// Submission is best effort; the written file is the contract
		if err := p.Submitter.Submit(ctx, rep); err != nil {
			p.Logger.Warn().Err(err).Str("dist", rep.Dist).Msg("submission failed")
		}
	}
	return nil
}

func (p *Pipeline) skip(ctx context.Context, ev types.Event, cause error) {
	p.stats.Skipped++
	if telemetry.EventsSkipped != nil {
		telemetry.EventsSkipped.Add(ctx, 1)
	}
	if p.Journal != nil {
		_ = p.Journal.Skipped(ev, cause)
	}
	p.Logger.Warn().
		Err(cause).
		Str("locator", ev.Locator).
		Str("dist", ev.DistLabel).
		Msg("skipping distribution")
}
