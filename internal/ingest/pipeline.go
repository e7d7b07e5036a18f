// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package ingest reads newline-delimited events from a stream and stores
// them with embeddings. The pipeline is strictly sequential and idempotent:
// replaying the same stream converges on one stored copy per event ID.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chakany/noah/internal/store"
	"github.com/chakany/noah/pkg/errors"
)

// Mode selects the wire format of the input stream.
type Mode int

const (
	// ModeDirect reads bare event objects, one per line, and writes a
	// result record per line.
	ModeDirect Mode = iota

	// ModeEnvelope reads relay-plugin envelopes and acknowledges each
	// well-formed line with an accept decision before storing it.
	ModeEnvelope
)

// maxLineBytes bounds a single input line. Events larger than this are a
// stream error, not a per-line one.
const maxLineBytes = 1 << 20

// Result actions for ModeDirect output records.
const (
	ActionSaved     = "saved"
	ActionDuplicate = "duplicate"
	ActionSkipped   = "skipped"
	ActionError     = "error"
	ActionAccept    = "accept"
)

// envelope is the relay-plugin input wrapper. Only the event payload
// matters to the pipeline; the rest is carried for logging.
type envelope struct {
	Type       string       `json:"type"`
	Event      *store.Event `json:"event"`
	ReceivedAt int64        `json:"receivedAt"`
	SourceType string       `json:"sourceType"`
	SourceInfo string       `json:"sourceInfo"`
}

// ack is one output record. In ModeEnvelope only ID and Action are set.
type ack struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Msg    string `json:"msg,omitempty"`
}

// Embedder produces the embedding stored alongside an event.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventWriter is the slice of the event store ingestion needs.
type EventWriter interface {
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, event *store.Event, embedding []float32) error
}

// Pipeline consumes an event stream and persists embeddable events.
type Pipeline struct {
	store    EventWriter
	embedder Embedder
	mode     Mode
	out      io.Writer
	logger   *slog.Logger
}

// NewPipeline builds an ingestion pipeline writing acknowledgements to out.
func NewPipeline(st EventWriter, embedder Embedder, mode Mode, out io.Writer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    st,
		embedder: embedder,
		mode:     mode,
		out:      out,
		logger:   logger,
	}
}

// Run consumes the stream until EOF or context cancellation. Per-line
// failures are logged and skipped; only a stream-level read error or a
// cancelled context terminates the run with an error.
func (p *Pipeline) Run(ctx context.Context, in io.Reader) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("ingestion started", "mode", p.modeName())

	var processed, stored, skipped int64

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeIngestStreamFailure, "ingestion cancelled")
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		processed++

		event, err := p.decode(line)
		if err != nil {
			logger.Warn("dropping undecodable line", "error", err)
			if p.mode == ModeDirect {
				p.emit(&ack{Action: ActionError, Msg: "invalid event"})
			}
			continue
		}

		result := p.process(ctx, logger, event)
		switch result.Action {
		case ActionSaved:
			stored++
		case ActionSkipped, ActionDuplicate:
			skipped++
		}
		if p.mode == ModeDirect {
			p.emit(result)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.CodeIngestStreamFailure, "reading event stream")
	}

	logger.Info("ingestion finished",
		"processed", processed,
		"stored", stored,
		"skipped", skipped,
	)
	return nil
}

// decode parses one line according to the mode. In ModeEnvelope the accept
// acknowledgement is written and flushed here, before any store access.
func (p *Pipeline) decode(line []byte) (*store.Event, error) {
	if p.mode == ModeEnvelope {
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return nil, errors.Wrap(err, errors.CodeIngestLineInvalidFormat, "parsing envelope")
		}
		if env.Event == nil || env.Event.ID == "" {
			return nil, errors.New(errors.CodeIngestLineInvalidFormat, "envelope has no event")
		}
		p.emit(&ack{ID: env.Event.ID, Action: ActionAccept})
		return env.Event, nil
	}

	var event store.Event
	if err := json.Unmarshal(line, &event); err != nil {
		return nil, errors.Wrap(err, errors.CodeIngestLineInvalidFormat, "parsing event")
	}
	if event.ID == "" {
		return nil, errors.New(errors.CodeIngestLineInvalidFormat, "event has no id")
	}
	return &event, nil
}

// process applies the at-least-once procedure for one event: check, embed,
// insert. The insert's uniqueness constraint is the final arbiter; a
// conflict means another copy won the race and is not an error.
func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, event *store.Event) *ack {
	exists, err := p.store.Exists(ctx, event.ID)
	if err != nil {
		logger.Error("existence check failed", "event_id", event.ID, "error", err)
		return &ack{ID: event.ID, Action: ActionError, Msg: "storage unavailable"}
	}
	if exists {
		logger.Debug("event already stored", "event_id", event.ID)
		return &ack{ID: event.ID, Action: ActionDuplicate, Msg: "already exists"}
	}

	if !event.Embeddable() {
		logger.Debug("dropping non-text event", "event_id", event.ID, "kind", event.Kind)
		return &ack{ID: event.ID, Action: ActionSkipped, Msg: "unsupported kind"}
	}

	vec, err := p.embedder.Embed(ctx, event.Content)
	if err != nil {
		logger.Error("embedding failed", "event_id", event.ID, "error", err)
		return &ack{ID: event.ID, Action: ActionError, Msg: "embedding failed"}
	}

	if err := p.store.Insert(ctx, event, vec); err != nil {
		if errors.IsConflict(err) {
			logger.Debug("concurrent insert lost the race", "event_id", event.ID)
			return &ack{ID: event.ID, Action: ActionDuplicate, Msg: "already exists"}
		}
		logger.Error("insert failed", "event_id", event.ID, "error", err)
		return &ack{ID: event.ID, Action: ActionError, Msg: "storage unavailable"}
	}

	logger.Info("event stored", "event_id", event.ID)
	return &ack{ID: event.ID, Action: ActionSaved}
}

// emit writes one JSON record followed by a newline and flushes if the
// writer supports it. Downstream consumers read acknowledgements line by
// line, so partial writes must not linger in a buffer.
func (p *Pipeline) emit(record *ack) {
	data, err := json.Marshal(record)
	if err != nil {
		p.logger.Error("encoding acknowledgement", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := p.out.Write(data); err != nil {
		p.logger.Error("writing acknowledgement", "error", err)
		return
	}
	if f, ok := p.out.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			p.logger.Error("flushing acknowledgement", "error", err)
		}
	}
}

func (p *Pipeline) modeName() string {
	if p.mode == ModeEnvelope {
		return "envelope"
	}
	return "direct"
}
