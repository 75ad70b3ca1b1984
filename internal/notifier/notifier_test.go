package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/monsterwatch/internal/models"
)

// recordingHandler remembers every call it receives, in order
type recordingHandler struct {
	mu         sync.Mutex
	name       string
	calls      []string
	heartbeats []models.Heartbeat
	failOn     string
	panicOn    string
}

func newRecordingHandler(name string) *recordingHandler {
	return &recordingHandler{name: name}
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) record(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, op)
	if op == h.panicOn {
		panic("handler exploded")
	}
	if op == h.failOn {
		return errors.New("delivery failed")
	}
	return nil
}

func (h *recordingHandler) OnStartup(ctx context.Context, ev models.StartupEvent) error {
	return h.record("startup")
}

func (h *recordingHandler) OnChanged(ctx context.Context, ev models.ChangedEvent) error {
	return h.record("changed")
}

func (h *recordingHandler) OnFailed(ctx context.Context, ev models.FailedEvent) error {
	return h.record("failed")
}

func (h *recordingHandler) OnHeartbeat(ctx context.Context, hb models.Heartbeat) error {
	h.mu.Lock()
	h.heartbeats = append(h.heartbeats, hb)
	h.mu.Unlock()
	return h.record("heartbeat")
}

func (h *recordingHandler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// fixedClock returns a clock that can be moved by the test
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
