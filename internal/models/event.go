package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a notification event variant
type EventKind string

const (
	EventStartup   EventKind = "startup"
	EventChanged   EventKind = "changed"
	EventNoChanges EventKind = "no_changes"
	EventFailed    EventKind = "failed"
)

// Event is a notification flowing from a watcher to the dispatcher.
// The set of variants is closed: StartupEvent, ChangedEvent, NoChangesEvent and FailedEvent.
type Event interface {
	Kind() EventKind
	// TargetURL is empty for StartupEvent
	TargetURL() string
	Meta() EventMeta
	sealed()
}

// EventMeta identifies one event occurrence
type EventMeta struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newMeta() EventMeta {
	return EventMeta{ID: uuid.NewString(), OccurredAt: time.Now().UTC()}
}

func (m EventMeta) Meta() EventMeta { return m }

func (EventMeta) sealed() {}

// StartupEvent is sent once when all watchers have been started
type StartupEvent struct {
	EventMeta
	URLs []string `json:"urls"`
}

func NewStartupEvent(urls []string) StartupEvent {
	return StartupEvent{EventMeta: newMeta(), URLs: append([]string(nil), urls...)}
}

func (StartupEvent) Kind() EventKind   { return EventStartup }
func (StartupEvent) TargetURL() string { return "" }

// ChangedEvent carries the unmasked content before and after a change
type ChangedEvent struct {
	EventMeta
	URL string `json:"url"`
	Old string `json:"old"`
	New string `json:"new"`
}

func NewChangedEvent(url, oldContent, newContent string) ChangedEvent {
	return ChangedEvent{EventMeta: newMeta(), URL: url, Old: oldContent, New: newContent}
}

func (ChangedEvent) Kind() EventKind     { return EventChanged }
func (e ChangedEvent) TargetURL() string { return e.URL }

// NoChangesEvent reports a successful poll with identical masked content
type NoChangesEvent struct {
	EventMeta
	URL string `json:"url"`
}

func NewNoChangesEvent(url string) NoChangesEvent {
	return NoChangesEvent{EventMeta: newMeta(), URL: url}
}

func (NoChangesEvent) Kind() EventKind     { return EventNoChanges }
func (e NoChangesEvent) TargetURL() string { return e.URL }

// FailedEvent reports the transition of a target into failure.
// Status and Body are set when the server answered with a non-2xx status.
type FailedEvent struct {
	EventMeta
	URL    string  `json:"url"`
	Reason string  `json:"reason"`
	Status *int    `json:"status,omitempty"`
	Body   *string `json:"body,omitempty"`
}

func NewFailedEvent(url, reason string, status *int, body *string) FailedEvent {
	return FailedEvent{EventMeta: newMeta(), URL: url, Reason: reason, Status: status, Body: body}
}

func (FailedEvent) Kind() EventKind     { return EventFailed }
func (e FailedEvent) TargetURL() string { return e.URL }
