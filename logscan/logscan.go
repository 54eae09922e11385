// Package logscan turns install-tool build logs into distribution events.
// It replaces the inherited tail-and-dispatch machinery with a plain
// interface: the caller supplies a Handler and gets one call per
// distribution, in log order.
package logscan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/smokerep/smokerep/types"
)

// Handler processes one distribution event. Returning an error stops
// the scan and propagates to the caller.
type Handler func(types.Event) error

// Recognized log lines. Everything between an install line and its
// result line is captured verbatim as test output.
var (
	toolRe    = regexp.MustCompile(`^Tool: (.+?)\s*$`)
	installRe = regexp.MustCompile(`^Installing (\S+) \((\S+)\)\s*$`)
	resultRe  = regexp.MustCompile(`^Result: (PASS|FAIL|NA|UNKNOWN)\s*$`)
)

// parser is the per-line state machine. One open event at a time;
// lines outside an open event are ignored.
type parser struct {
	cur  *types.Event
	tool string
}

// feed consumes one log line (without trailing newline) and returns a
// completed event when the line closes one.
func (p *parser) feed(line string) *types.Event {
	if m := toolRe.FindStringSubmatch(line); m != nil {
		p.tool = m[1]
		return nil
	}
	if m := installRe.FindStringSubmatch(line); m != nil {
		p.cur = &types.Event{DistLabel: m[1], Locator: m[2], ToolVersion: p.tool}
		return nil
	}
	if p.cur == nil {
		return nil
	}
	if m := resultRe.FindStringSubmatch(line); m != nil {
		ev := p.cur
		p.cur = nil
		ev.Grade = types.Grade(m[1])
		return ev
	}
	p.cur.Output = append(p.cur.Output, line+"\n")
	return nil
}

// Scan reads a complete build log and invokes h once per distribution.
// An event without a result line by end of log is dropped.
func Scan(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	p := &parser{}
	for scanner.Scan() {
		ev := p.feed(strings.TrimRight(scanner.Text(), "\r"))
		if ev == nil {
			continue
		}
		if err := h(*ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	return nil
}

// ScanFile scans a build log on disk.
func ScanFile(path string, h Handler) error {
	f, err := os.Open(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()
	return Scan(f, h)
}

// Follow tails a growing build log, dispatching events as result lines
// arrive. Existing content is processed first. Returns nil when ctx is
// canceled.
func Follow(ctx context.Context, path string, h Handler) error {
	f, err := os.Open(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log: %w", err)
	}

	p := &parser{}
	reader := bufio.NewReader(f)
	var partial strings.Builder

	// drain reads every complete line currently available, carrying a
	// partial trailing line across writes
	drain := func() error {
		for {
			chunk, err := reader.ReadString('\n')
			if err == io.EOF {
				partial.WriteString(chunk)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read log: %w", err)
			}
			line := partial.String() + strings.TrimRight(chunk, "\r\n")
			partial.Reset()
			if ev := p.feed(line); ev != nil {
				if err := h(*ev); err != nil {
					return err
				}
			}
		}
	}

	if err := drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write != 0 {
				if err := drain(); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
