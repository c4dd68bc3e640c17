package node

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/prysmaticlabs/casper-gadget/gadget/db/kv"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	"github.com/prysmaticlabs/casper-gadget/runtime"
)

const eventBufferSize = 256

var _ runtime.Service = (*eventWriter)(nil)

// eventWriter copies every gadget event into the event log of the database.
// It must never call back into the ledger: events are sent while the ledger
// lock is held.
type eventWriter struct {
	ctx     context.Context
	cancel  context.CancelFunc
	db      *kv.Store
	ch      chan *feed.Event
	sub     event.Subscription
	lock    sync.Mutex
	started bool
	done    chan struct{}
	failure error
}

func newEventWriter(ctx context.Context, db *kv.Store, f *event.Feed) *eventWriter {
	ctx, cancel := context.WithCancel(ctx)
	w := &eventWriter{
		ctx:    ctx,
		cancel: cancel,
		db:     db,
		ch:     make(chan *feed.Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	w.sub = f.Subscribe(w.ch)
	return w
}

// Start saves events until the writer is stopped.
func (w *eventWriter) Start() {
	w.lock.Lock()
	w.started = true
	w.lock.Unlock()
	defer close(w.done)

	for {
		select {
		case ev := <-w.ch:
			w.save(ev)
		case <-w.sub.Err():
			w.drain()
			return
		case <-w.ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *eventWriter) drain() {
	for {
		select {
		case ev := <-w.ch:
			w.save(ev)
		default:
			return
		}
	}
}

func (w *eventWriter) save(ev *feed.Event) {
	if err := w.db.SaveEvent(context.Background(), ev); err != nil {
		log.WithError(err).WithField("type", ev.Type.String()).Error("Could not save event")
		w.lock.Lock()
		w.failure = err
		w.lock.Unlock()
	}
}

// Stop unsubscribes from the feed and waits for buffered events to be saved.
func (w *eventWriter) Stop() error {
	w.sub.Unsubscribe()
	w.cancel()
	w.lock.Lock()
	started := w.started
	w.lock.Unlock()
	if started {
		<-w.done
	}
	return nil
}

// Status reports the last failure to save an event.
func (w *eventWriter) Status() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.failure
}
