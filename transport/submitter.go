// Package transport defines the optional submission boundary: handing
// finished reports to a remote aggregation service. The core pipeline
// works without it; writing the report file is the contract.
package transport

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/smokerep/smokerep/types"
)

// Submitter sends a report to an external aggregator. Implementations
// own deduplication against their submission history; the pipeline only
// guarantees one call per written report.
type Submitter interface {
	Submit(ctx context.Context, r *types.Report) error
}

// Nop discards reports. Used until an aggregator client is configured.
type Nop struct{}

func (Nop) Submit(context.Context, *types.Report) error { return nil }

// Logging wraps a Submitter and records each submission attempt.
type Logging struct {
	Next   Submitter
	Logger zerolog.Logger
}

func (l Logging) Submit(ctx context.Context, r *types.Report) error {
	err := l.Next.Submit(ctx, r)
	if err != nil {
		l.Logger.Warn().
			Err(err).
			Str("dist", r.Dist).
			Str("author", r.Author).
			Msg("report submission failed")
		return err
	}
	l.Logger.Debug().
		Str("dist", r.Dist).
		Str("author", r.Author).
		Msg("report submitted")
	return nil
}

var (
	_ Submitter = Nop{}
	_ Submitter = Logging{}
)
