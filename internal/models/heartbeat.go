package models

// UpdateKind is the outcome of a poll recorded in the heartbeat
type UpdateKind int

const (
	UpdateChange UpdateKind = iota
	UpdateNoChange
	UpdateFailure
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateChange:
		return "change"
	case UpdateNoChange:
		return "no-change"
	case UpdateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// HeartbeatItem is the liveness record of one target.
// Timestamps are epoch seconds and nil until the first matching update.
type HeartbeatItem struct {
	URL         string `json:"url"`
	LastUpdate  *int64 `json:"last_update,omitempty"`
	LastChange  *int64 `json:"last_change,omitempty"`
	LastFailure *int64 `json:"last_failure,omitempty"`
}

// Heartbeat is the aggregate liveness state. Dirty is set on every update
// and cleared when a heartbeat is emitted.
type Heartbeat struct {
	Items []HeartbeatItem `json:"items"`
	Dirty bool            `json:"dirty"`
}

// Clone returns a deep copy that shares no pointers with h
func (h Heartbeat) Clone() Heartbeat {
	items := make([]HeartbeatItem, len(h.Items))
	for i, item := range h.Items {
		items[i] = HeartbeatItem{
			URL:         item.URL,
			LastUpdate:  copyInt64(item.LastUpdate),
			LastChange:  copyInt64(item.LastChange),
			LastFailure: copyInt64(item.LastFailure),
		}
	}
	return Heartbeat{Items: items, Dirty: h.Dirty}
}

// Item returns the record for url, if present
func (h Heartbeat) Item(url string) (HeartbeatItem, bool) {
	for _, item := range h.Items {
		if item.URL == url {
			return item, true
		}
	}
	return HeartbeatItem{}, false
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
