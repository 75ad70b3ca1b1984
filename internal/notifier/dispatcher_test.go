package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_CallsHandlersInOrder(t *testing.T) {
	var order []string
	first := &orderedHandler{recordingHandler: newRecordingHandler("first"), order: &order}
	second := &orderedHandler{recordingHandler: newRecordingHandler("second"), order: &order}

	tracker := NewHeartbeatTracker([]string{"u"}, nil)
	d := NewDispatcher(NewBus(), tracker, []Handler{first, second}, zerolog.Nop())
	ctx := context.Background()

	d.Dispatch(ctx, models.NewStartupEvent([]string{"u"}))
	d.Dispatch(ctx, models.NewChangedEvent("u", "a", "b"))
	d.Dispatch(ctx, models.NewFailedEvent("u", "boom", nil, nil))

	assert.Equal(t, []string{
		"first:startup", "second:startup",
		"first:changed", "second:changed",
		"first:failed", "second:failed",
	}, order)
	assert.Equal(t, int64(3), d.Processed())
	assert.Zero(t, d.Failures())
}

func TestDispatcher_NoChangesOnlyUpdatesTracker(t *testing.T) {
	h := newRecordingHandler("h")
	tracker := NewHeartbeatTracker([]string{"u"}, nil)
	d := NewDispatcher(NewBus(), tracker, []Handler{h}, zerolog.Nop())

	d.Dispatch(context.Background(), models.NewNoChangesEvent("u"))

	assert.Empty(t, h.Calls())
	item, _ := tracker.Snapshot().Item("u")
	assert.NotNil(t, item.LastUpdate)
	assert.Nil(t, item.LastChange)
	assert.Nil(t, item.LastFailure)
}

func TestDispatcher_StartupDoesNotTouchTracker(t *testing.T) {
	tracker := NewHeartbeatTracker([]string{"u"}, nil)
	d := NewDispatcher(NewBus(), tracker, nil, zerolog.Nop())

	d.Dispatch(context.Background(), models.NewStartupEvent([]string{"u", "v"}))

	hb := tracker.Snapshot()
	assert.False(t, hb.Dirty)
	assert.Len(t, hb.Items, 1)
}

func TestDispatcher_IsolatesHandlerFailures(t *testing.T) {
	tests := []struct {
		name    string
		failing *recordingHandler
	}{
		{name: "error", failing: &recordingHandler{name: "broken", failOn: "changed"}},
		{name: "panic", failing: &recordingHandler{name: "broken", panicOn: "changed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthy := newRecordingHandler("healthy")
			clock := &fixedClock{now: time.Unix(42, 0)}
			tracker := NewHeartbeatTracker([]string{"u"}, clock.Now)
			d := NewDispatcher(NewBus(), tracker, []Handler{tt.failing, healthy}, zerolog.Nop())

			assert.NotPanics(t, func() {
				d.Dispatch(context.Background(), models.NewChangedEvent("u", "a", "b"))
			})

			assert.Equal(t, []string{"changed"}, tt.failing.Calls())
			assert.Equal(t, []string{"changed"}, healthy.Calls())
			assert.Equal(t, int64(1), d.Failures())

			item, _ := tracker.Snapshot().Item("u")
			require.NotNil(t, item.LastChange)
			assert.Equal(t, int64(42), *item.LastChange)
		})
	}
}

func TestDispatcher_RunStopsWhenBusCloses(t *testing.T) {
	bus := NewBus()
	h := newRecordingHandler("h")
	tracker := NewHeartbeatTracker([]string{"u"}, nil)
	d := NewDispatcher(bus, tracker, []Handler{h}, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	ctx := context.Background()
	require.NoError(t, bus.Send(ctx, models.NewChangedEvent("u", "a", "b")))
	require.NoError(t, bus.Send(ctx, models.NewFailedEvent("u", "boom", nil, nil)))
	bus.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	assert.Equal(t, []string{"changed", "failed"}, h.Calls())
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d := NewDispatcher(NewBus(), NewHeartbeatTracker(nil, nil), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, d.Run(ctx))
}

// orderedHandler appends "name:op" to a shared slice
type orderedHandler struct {
	*recordingHandler
	order *[]string
}

func (h *orderedHandler) OnStartup(ctx context.Context, ev models.StartupEvent) error {
	*h.order = append(*h.order, h.name+":startup")
	return nil
}

func (h *orderedHandler) OnChanged(ctx context.Context, ev models.ChangedEvent) error {
	*h.order = append(*h.order, h.name+":changed")
	return nil
}

func (h *orderedHandler) OnFailed(ctx context.Context, ev models.FailedEvent) error {
	*h.order = append(*h.order, h.name+":failed")
	return nil
}
