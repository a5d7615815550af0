// SPDX-License-Identifier: MPL-2.0

// Package tracking records plugin invocation events.
package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted around an invocation.
const (
	EventInvocationStarted   = "invocation_started"
	EventInvocationCompleted = "invocation_completed"
	EventInvocationFailed    = "invocation_failed"
)

type (
	// Event describes one tracked occurrence.
	Event struct {
		ID        uuid.UUID
		Kind      string
		Plugin    string
		Command   string
		ExitCode  int
		Timestamp time.Time
	}

	// Tracker receives events. Implementations must not block the caller
	// for long and must be safe for concurrent use.
	Tracker interface {
		TrackEvent(ctx context.Context, ev Event)
	}

	// LogTracker writes events to a structured logger at debug level.
	LogTracker struct {
		Logger *slog.Logger
	}
)

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind, pluginName, command string) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Plugin:    pluginName,
		Command:   command,
		Timestamp: time.Now().UTC(),
	}
}

// TrackEvent implements Tracker.
func (t LogTracker) TrackEvent(ctx context.Context, ev Event) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "tracked event",
		"id", ev.ID.String(),
		"kind", ev.Kind,
		"plugin", ev.Plugin,
		"command", ev.Command,
		"exit_code", ev.ExitCode,
		"timestamp", ev.Timestamp,
	)
}
