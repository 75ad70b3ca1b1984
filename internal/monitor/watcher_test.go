package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com/status"

// fetchResult is one scripted response of scriptedFetcher
type fetchResult struct {
	content string
	err     error
}

type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, target Target) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.results[f.calls%len(f.results)]
	f.calls++
	return r.content, r.err
}

type recordingBus struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	notify chan struct{}
}

func (b *recordingBus) Send(ctx context.Context, ev models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	if b.notify != nil {
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *recordingBus) Events() []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Event(nil), b.events...)
}

func newTestWatcher(t *testing.T, target Target, fetcher ContentFetcher, bus EventSender) *Watcher {
	t.Helper()
	if target.URL == "" {
		target.URL = testURL
	}
	w, err := NewWatcher(target, fetcher, bus, zerolog.Nop())
	require.NoError(t, err)
	return w
}

func TestWatcher_BaselineThenNoChangesThenChanged(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{content: "A"}, {content: "A"}, {content: "B"}}}
	bus := &recordingBus{}
	w := newTestWatcher(t, Target{Interval: 10 * time.Second}, fetcher, bus)
	ctx := context.Background()

	require.NoError(t, w.Poll(ctx))
	assert.Empty(t, bus.Events(), "first fetch only records a baseline")

	require.NoError(t, w.Poll(ctx))
	require.Len(t, bus.Events(), 1)
	noChanges, ok := bus.Events()[0].(models.NoChangesEvent)
	require.True(t, ok)
	assert.Equal(t, testURL, noChanges.URL)

	require.NoError(t, w.Poll(ctx))
	require.Len(t, bus.Events(), 2)
	changed, ok := bus.Events()[1].(models.ChangedEvent)
	require.True(t, ok)
	assert.Equal(t, testURL, changed.URL)
	assert.Equal(t, "A", changed.Old)
	assert.Equal(t, "B", changed.New)
}

func TestWatcher_MaskedChangesAreIgnored(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{content: "x sessionid=abc y"},
		{content: "x sessionid=def y"},
		{content: "z sessionid=ghi y"},
	}}
	bus := &recordingBus{}
	w := newTestWatcher(t, Target{Ignore: []string{`sessionid=\w+`}}, fetcher, bus)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Poll(ctx))
	}

	events := bus.Events()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventNoChanges, events[0].Kind())

	changed, ok := events[1].(models.ChangedEvent)
	require.True(t, ok)
	// unmasked content is reported
	assert.Equal(t, "x sessionid=def y", changed.Old)
	assert.Equal(t, "z sessionid=ghi y", changed.New)
}

func TestWatcher_EdgeTriggeredFailures(t *testing.T) {
	var mu sync.Mutex
	status := http.StatusServiceUnavailable
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte("up"))
			return
		}
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	setStatus := func(s int) {
		mu.Lock()
		defer mu.Unlock()
		status = s
	}

	fetcher := NewFetcher(server.Client(), config.NewDefaultHTTPConfig(), zerolog.Nop())
	bus := &recordingBus{}
	w := newTestWatcher(t, Target{URL: server.URL, Method: http.MethodGet}, fetcher, bus)
	ctx := context.Background()

	require.NoError(t, w.Poll(ctx))
	require.Len(t, bus.Events(), 1)
	failed, ok := bus.Events()[0].(models.FailedEvent)
	require.True(t, ok)
	require.NotNil(t, failed.Status)
	require.NotNil(t, failed.Body)
	assert.Equal(t, 503, *failed.Status)
	assert.Equal(t, "maintenance", *failed.Body)
	assert.Contains(t, failed.Reason, "503")
	assert.True(t, w.Failing())

	require.NoError(t, w.Poll(ctx))
	assert.Len(t, bus.Events(), 1, "repeated failure is suppressed")

	setStatus(http.StatusOK)
	require.NoError(t, w.Poll(ctx))
	assert.False(t, w.Failing())
	assert.Len(t, bus.Events(), 1, "first success only records a baseline")

	setStatus(http.StatusServiceUnavailable)
	require.NoError(t, w.Poll(ctx))
	require.Len(t, bus.Events(), 2)
	assert.Equal(t, models.EventFailed, bus.Events()[1].Kind())
}

func TestWatcher_NetworkFailureHasNoStatus(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{err: common.NewTransportError(testURL, errors.New("connection refused"))}}}
	bus := &recordingBus{}
	w := newTestWatcher(t, Target{}, fetcher, bus)

	require.NoError(t, w.Poll(context.Background()))
	require.Len(t, bus.Events(), 1)

	failed := bus.Events()[0].(models.FailedEvent)
	assert.Nil(t, failed.Status)
	assert.Nil(t, failed.Body)
	assert.Contains(t, failed.Reason, "connection refused")
}

func TestWatcher_FailureRecoveryWithChange(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &scriptedFetcher{results: []fetchResult{{content: "A"}, {err: boom}, {content: "B"}}}
	bus := &recordingBus{}
	w := newTestWatcher(t, Target{}, fetcher, bus)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Poll(ctx))
	}

	events := bus.Events()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventFailed, events[0].Kind())
	changed := events[1].(models.ChangedEvent)
	assert.Equal(t, "A", changed.Old)
	assert.Equal(t, "B", changed.New)
	assert.False(t, w.Failing())
}

func TestWatcher_FatalBusErrorOnFailedDelivery(t *testing.T) {
	cause := common.NewHTTPErrorWithURL(http.StatusBadGateway, "bad gateway", testURL)
	fetcher := &scriptedFetcher{results: []fetchResult{{err: cause}}}
	bus := &recordingBus{err: common.ErrBusClosed}
	w := newTestWatcher(t, Target{}, fetcher, bus)

	err := w.Poll(context.Background())
	require.Error(t, err)

	var fatal *common.FatalBusError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, testURL, fatal.URL)
	assert.Equal(t, cause, fatal.Cause)
	assert.ErrorIs(t, fatal.DeliveryErr, common.ErrBusClosed)
	assert.Contains(t, err.Error(), "status 502")
}

func TestWatcher_FatalBusErrorOnChangedDelivery(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{content: "A"}, {content: "B"}}}
	bus := &recordingBus{err: common.ErrBusClosed}
	w := newTestWatcher(t, Target{}, fetcher, bus)
	ctx := context.Background()

	require.NoError(t, w.Poll(ctx))

	err := w.Poll(ctx)
	var fatal *common.FatalBusError
	require.True(t, errors.As(err, &fatal))
	assert.ErrorIs(t, fatal.Cause, common.ErrBusClosed)
	assert.Contains(t, fatal.Cause.Error(), "delivering changed event")
}

func TestWatcher_CancellationIsNotFatal(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{err: errors.New("boom")}}}
	bus := &recordingBus{}
	w := newTestWatcher(t, Target{}, fetcher, bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Poll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	var fatal *common.FatalBusError
	assert.False(t, errors.As(err, &fatal))
	assert.Empty(t, bus.Events())
}

func TestWatcher_Run(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{content: "A"}, {content: "B"}}}
	bus := &recordingBus{notify: make(chan struct{}, 1)}
	w := newTestWatcher(t, Target{Interval: time.Millisecond}, fetcher, bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-bus.notify:
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not emit events")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	events := bus.Events()
	require.GreaterOrEqual(t, len(events), 2)
	for _, ev := range events {
		assert.Equal(t, models.EventChanged, ev.Kind(), "alternating content always changes")
	}
}

func TestWatcher_RunReturnsFatalError(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{err: errors.New("boom")}}}
	bus := &recordingBus{err: common.ErrBusClosed}
	w := newTestWatcher(t, Target{Interval: time.Millisecond}, fetcher, bus)

	err := w.Run(context.Background())

	var fatal *common.FatalBusError
	require.True(t, errors.As(err, &fatal))
	assert.EqualError(t, fatal.Cause, "boom")
}

func TestNewWatcher_InvalidPattern(t *testing.T) {
	_, err := NewWatcher(Target{URL: testURL, Ignore: []string{"["}}, &scriptedFetcher{}, &recordingBus{}, zerolog.Nop())

	var patternErr *common.PatternError
	assert.True(t, errors.As(err, &patternErr))
}
