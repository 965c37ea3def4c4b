package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/relayscrub/pkg/cli"
	"mercator-hq/relayscrub/pkg/scrub"
	"mercator-hq/relayscrub/pkg/telemetry/logging"
	"mercator-hq/relayscrub/pkg/telemetry/tracing"
)

// envelope carries an event together with its routing information. Lines
// without an "event" member are treated as bare events of the default
// project.
type envelope struct {
	Project string            `json:"project,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Event   json.RawMessage   `json:"event"`
}

// relayStats counts the outcome of a stream.
type relayStats struct {
	Total    int `json:"total"`
	Scrubbed int `json:"scrubbed"`
	Rejected int `json:"rejected"`
}

func (s relayStats) String() string {
	return fmt.Sprintf("%d event(s): %d scrubbed, %d rejected", s.Total, s.Scrubbed, s.Rejected)
}

// relay scrubs a newline-delimited stream of events.
type relay struct {
	manager  *scrub.Manager
	scrubber *scrub.Scrubber
	logger   *logging.Logger
	tracer   *tracing.Tracer
	progress cli.ProgressReporter

	// maxLine is the longest line accepted; longer lines are skipped
	maxLine int
}

// Stream reads events from in until EOF or ctx is cancelled and writes
// every scrubbed event to out in the shape it arrived in. Rejected events
// are logged and dropped.
func (r *relay) Stream(ctx context.Context, in io.Reader, out io.Writer) (relayStats, error) {
	var stats relayStats
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	if r.progress != nil {
		r.progress.Start(0)
		defer r.progress.Finish()
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, nil
		}

		line, err := readLine(reader, r.maxLine)
		if errors.Is(err, errLineTooLong) {
			stats.Total++
			stats.Rejected++
			r.logger.Warn("Event rejected", "error", scrub.ErrEventTooLarge, "limit_bytes", r.maxLine)
			continue
		}
		if len(line) > 0 {
			stats.Total++
			scrubbed, ok := r.handle(ctx, line)
			if ok {
				stats.Scrubbed++
				writer.Write(scrubbed)
				writer.WriteByte('\n')
				// Each event is forwarded as soon as it is scrubbed.
				if ferr := writer.Flush(); ferr != nil {
					return stats, fmt.Errorf("failed to write event: %w", ferr)
				}
			} else {
				stats.Rejected++
			}
			if r.progress != nil {
				r.progress.Increment()
			}
		}
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read events: %w", err)
		}
	}
}

// handle scrubs one line. It reports false when the event was rejected.
func (r *relay) handle(ctx context.Context, line []byte) ([]byte, bool) {
	env, isEnvelope := parseEnvelope(line)
	data := line
	if isEnvelope {
		data = env.Event
		var ok bool
		if ctx, ok = tracing.ContextFromHeaders(ctx, env.Headers); !ok {
			r.logger.Debug("Dropped malformed traceparent", "project", env.Project)
		}
	}
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "relay.event")
		defer span.End()
	}

	snap, err := r.manager.Snapshot(env.Project)
	if err != nil {
		r.logger.Warn("Event rejected", "project", env.Project, "error", err)
		return nil, false
	}

	out, report, err := r.scrubber.ScrubJSON(ctx, data, snap)
	if err != nil {
		// Events that reached the pipeline are logged by the scrubber.
		if report == nil {
			r.logger.Warn("Event rejected", "project", snap.Project, "error", err)
		}
		return nil, false
	}

	if !isEnvelope {
		return out, true
	}
	env.Event = out
	if env.Headers == nil {
		env.Headers = map[string]string{}
	}
	tracing.InjectToMap(ctx, env.Headers)
	encoded, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("Failed to encode envelope", "error", err)
		return nil, false
	}
	return encoded, true
}

// parseEnvelope decodes line as an envelope. It reports false for bare
// events.
func parseEnvelope(line []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return envelope{}, false
	}
	if len(env.Event) == 0 || bytes.Equal(env.Event, []byte("null")) {
		return envelope{}, false
	}
	return env, true
}

var errLineTooLong = errors.New("line too long")

// readLine returns the next line without its terminator. Lines longer than
// max are consumed and reported as errLineTooLong. A final line without a
// newline is returned together with io.EOF.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if max > 0 && len(line)+len(chunk) > max+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if tooLong {
			if err == nil || err == io.EOF {
				return nil, errLineTooLong
			}
			return nil, err
		}
		return bytes.TrimSpace(line), err
	}
}
