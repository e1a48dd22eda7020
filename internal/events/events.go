// Package events publishes build lifecycle events to NATS when configured.
// Event delivery is best-effort: a publish failure is logged, never fatal,
// so an unavailable broker cannot fail an otherwise good build.
package events

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docpub/internal/linkcheck"
)

// Event types published on the configured subject.
const (
	TypeBuildStarted  = "build.started"
	TypeBuildFinished = "build.finished"
	TypeBrokenLink    = "link.broken"
)

// BuildEvent is the JSON payload for build lifecycle events.
type BuildEvent struct {
	Type      string    `json:"type"`
	BuildID   string    `json:"build_id"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   string    `json:"outcome,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// BrokenLinkEvent is the JSON payload for a single broken link.
type BrokenLinkEvent struct {
	Type      string    `json:"type"`
	BuildID   string    `json:"build_id"`
	Timestamp time.Time `json:"timestamp"`
	linkcheck.BrokenLink
}

// Publisher emits build events. Implementations must tolerate being called
// from the build goroutine without blocking it for long.
type Publisher interface {
	BuildStarted(buildID string) error
	BuildFinished(buildID, outcome string, duration time.Duration, buildErr error) error
	BrokenLink(buildID string, link linkcheck.BrokenLink) error
	Close() error
}

// NoopPublisher is used when events are not configured.
type NoopPublisher struct{}

func (NoopPublisher) BuildStarted(string) error                                { return nil }
func (NoopPublisher) BuildFinished(string, string, time.Duration, error) error { return nil }
func (NoopPublisher) BrokenLink(string, linkcheck.BrokenLink) error            { return nil }
func (NoopPublisher) Close() error                                             { return nil }

func marshalBuildEvent(eventType, buildID, outcome string, duration time.Duration, buildErr error) ([]byte, error) {
	ev := BuildEvent{
		Type:      eventType,
		BuildID:   buildID,
		Timestamp: time.Now(),
		Outcome:   outcome,
	}
	if duration > 0 {
		ev.Duration = duration.String()
	}
	if buildErr != nil {
		ev.Error = buildErr.Error()
	}
	return json.Marshal(ev)
}
