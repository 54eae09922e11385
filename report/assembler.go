// Package report builds normalized outcome records from log events.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smokerep/smokerep/locator"
	"github.com/smokerep/smokerep/types"
)

// ReservedPrefix marks local-only distribution labels. Events under it
// never produce a report.
const ReservedPrefix = "Local-"

// ProducerName identifies this tool in the report's via field.
const ProducerName = "smokerep"

// SkipError marks a per-event failure: the event is abandoned and
// processing continues with the next one.
type SkipError struct {
	Locator string
	Err     error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipping %s: %v", e.Locator, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// IsSkip reports whether err is a per-event skip rather than a fatal failure.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}

// ErrReservedLabel rejects events whose raw label sits in the reserved
// local namespace.
var ErrReservedLabel = errors.New("reserved namespace label")

// Metadata looks up dependency metadata for a distribution label.
// A miss returns ok=false and leaves the report's prereqs unset.
type Metadata interface {
	Lookup(distLabel string) (prereqs map[string]string, ok bool)
}

// Assembler constructs reports from events. Construction is pure: the
// only effect is the returned record or skip.
type Assembler struct {
	Resolver    locator.AuthorResolver // nil falls back to the mirror-layout resolver
	Metadata    Metadata               // nil disables prereq lookup
	Version     string                 // producer version for the via field
	ToolVersion string                 // underlying install tool version, "" means unknown
}

// Assemble builds a report for one event. Reserved labels and locator
// parse failures return a SkipError; reserved labels are rejected before
// any author resolution happens.
func (a *Assembler) Assemble(ev types.Event) (*types.Report, error) {
	if strings.HasPrefix(ev.DistLabel, ReservedPrefix) {
		return nil, &SkipError{Locator: ev.Locator, Err: ErrReservedLabel}
	}

	id, err := locator.Parse(ev.Locator, a.Resolver)
	if err != nil {
		return nil, &SkipError{Locator: ev.Locator, Err: err}
	}

	r := &types.Report{
		Author:      id.Author,
		DistLabel:   ev.DistLabel,
		Grade:       ev.Grade,
		Via:         a.via(ev),
		TestOutput:  strings.Join(ev.Output, ""),
		DistVersion: id.Version,
		Dist:        id.Dist(),
	}

	if a.Metadata != nil {
		if prereqs, ok := a.Metadata.Lookup(ev.DistLabel); ok {
			r.Prereqs = prereqs
		}
	}

	return r, nil
}

func (a *Assembler) via(ev types.Event) string {
	tool := ev.ToolVersion
	if tool == "" {
		tool = a.ToolVersion
	}
	if tool == "" {
		tool = "unknown"
	}
	return fmt.Sprintf("%s %s (%s)", ProducerName, a.Version, tool)
}
