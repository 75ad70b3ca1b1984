package notifier

import (
	"context"
	"sync"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/models"
)

// busCapacity is the number of events a Send can leave pending
const busCapacity = 1

// Bus carries events from the watchers to the dispatcher. A Send blocks
// while an event is still pending, which bounds memory and paces watchers
// to the dispatcher. The channel itself is never closed so a late Send
// cannot panic.
type Bus struct {
	ch        chan models.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewBus creates an open bus
func NewBus() *Bus {
	return &Bus{
		ch:   make(chan models.Event, busCapacity),
		done: make(chan struct{}),
	}
}

// Send enqueues ev. It returns common.ErrBusClosed once Close was called
// and ctx.Err() if ctx ends first.
func (b *Bus) Send(ctx context.Context, ev models.Event) error {
	select {
	case <-b.done:
		return common.ErrBusClosed
	default:
	}

	select {
	case b.ch <- ev:
		return nil
	case <-b.done:
		return common.ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next event. Events still pending when the bus is
// closed are delivered before common.ErrBusClosed.
func (b *Bus) Receive(ctx context.Context) (models.Event, error) {
	select {
	case ev := <-b.ch:
		return ev, nil
	case <-b.done:
		select {
		case ev := <-b.ch:
			return ev, nil
		default:
			return nil, common.ErrBusClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting events. It is safe to call more than once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Closed reports whether Close was called
func (b *Bus) Closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
