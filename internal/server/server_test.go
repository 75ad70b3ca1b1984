package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/aleister1102/monsterwatch/internal/datastore"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticHeartbeat struct {
	hb models.Heartbeat
}

func (s staticHeartbeat) Snapshot() models.Heartbeat { return s.hb }

type fakeEventStore struct {
	records   []datastore.EventRecord
	err       error
	lastLimit int
}

func (f *fakeEventStore) RecentEvents(ctx context.Context, limit int) ([]datastore.EventRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Healthz(t *testing.T) {
	s := NewServer(config.StatusServerConfig{}, staticHeartbeat{}, nil, zerolog.Nop())

	rec := do(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Heartbeat(t *testing.T) {
	ts := int64(1700000000)
	hb := models.Heartbeat{
		Items: []models.HeartbeatItem{{URL: "https://a.example", LastUpdate: &ts}, {URL: "https://b.example"}},
		Dirty: true,
	}
	s := NewServer(config.StatusServerConfig{}, staticHeartbeat{hb: hb}, nil, zerolog.Nop())

	rec := do(t, s, "/heartbeat")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"items":[{"url":"https://a.example","last_update":1700000000},{"url":"https://b.example"}],"dirty":true}`, rec.Body.String())
}

func TestServer_Events(t *testing.T) {
	reason := "boom"
	store := &fakeEventStore{records: []datastore.EventRecord{
		{ID: "2", Kind: "failed", URL: "https://a.example", OccurredAt: time.Unix(20, 0).UTC(), Reason: &reason},
		{ID: "1", Kind: "startup", OccurredAt: time.Unix(10, 0).UTC()},
	}}
	s := NewServer(config.StatusServerConfig{}, staticHeartbeat{}, store, zerolog.Nop())

	tests := []struct {
		name      string
		target    string
		status    int
		wantIDs   []string
		wantLimit int
	}{
		{name: "default limit", target: "/events", status: http.StatusOK, wantIDs: []string{"2", "1"}, wantLimit: datastore.DefaultRecentLimit},
		{name: "explicit limit", target: "/events?limit=1", status: http.StatusOK, wantIDs: []string{"2"}, wantLimit: 1},
		{name: "invalid limit", target: "/events?limit=abc", status: http.StatusBadRequest},
		{name: "negative limit", target: "/events?limit=-3", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.target)
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}

			var body struct {
				Events []datastore.EventRecord `json:"events"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			ids := make([]string, 0, len(body.Events))
			for _, ev := range body.Events {
				ids = append(ids, ev.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantLimit, store.lastLimit)
		})
	}
}

func TestServer_EventsErrors(t *testing.T) {
	disabled := NewServer(config.StatusServerConfig{}, staticHeartbeat{}, nil, zerolog.Nop())
	rec := do(t, disabled, "/events")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"journal is disabled"}`, rec.Body.String())

	broken := NewServer(config.StatusServerConfig{}, staticHeartbeat{}, &fakeEventStore{err: errors.New("disk full")}, zerolog.Nop())
	rec = do(t, broken, "/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := NewServer(config.StatusServerConfig{}, staticHeartbeat{}, nil, zerolog.Nop())
	assert.Equal(t, http.StatusNotFound, do(t, s, "/nope").Code)
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(config.StatusServerConfig{}, staticHeartbeat{}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
