package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const sinkTimeout = 3 * time.Second

// Emitter queues events on a bounded channel and fans them out to sinks from
// a single worker started with Run.
type Emitter struct {
	queue       chan Event
	sinks       []Sink
	sendTimeout time.Duration
	dropped     atomic.Int64

	stopped  chan struct{}
	stopOnce sync.Once
}

func NewEmitter(buffer int, sendTimeout time.Duration, sinks ...Sink) *Emitter {
	if buffer <= 0 {
		buffer = 1
	}
	return &Emitter{
		queue:       make(chan Event, buffer),
		sinks:       sinks,
		sendTimeout: sendTimeout,
		stopped:     make(chan struct{}),
	}
}

// Emit enqueues the event, waiting at most the send timeout for buffer
// space. When the buffer stays full, or Run has returned, the event is
// dropped.
func (e *Emitter) Emit(event Event) {
	select {
	case <-e.stopped:
		e.drop(event, "emitter stopped")
		return
	default:
	}

	select {
	case e.queue <- event:
		return
	default:
	}

	if e.sendTimeout > 0 {
		timer := time.NewTimer(e.sendTimeout)
		defer timer.Stop()
		select {
		case e.queue <- event:
			return
		case <-e.stopped:
			e.drop(event, "emitter stopped")
			return
		case <-timer.C:
		}
	}

	e.drop(event, "buffer full")
}

func (e *Emitter) drop(event Event, reason string) {
	e.dropped.Add(1)
	zap.L().Warn("notification dropped",
		zap.String("area", "notify"),
		zap.String("reason", reason),
		zap.String("type", event.Type),
		zap.String("id", event.ID),
	)
}

// Dropped reports how many events were discarded.
func (e *Emitter) Dropped() int64 {
	return e.dropped.Load()
}

// Run delivers queued events until ctx is cancelled. Later calls to Emit
// drop their event without waiting.
func (e *Emitter) Run(ctx context.Context) error {
	defer e.stopOnce.Do(func() { close(e.stopped) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-e.queue:
			e.dispatch(ctx, event)
		}
	}
}

func (e *Emitter) dispatch(ctx context.Context, event Event) {
	for _, sink := range e.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := sink.Publish(sctx, event)
		cancel()
		if err != nil {
			zap.L().Warn("notification sink failed",
				zap.String("area", "notify"),
				zap.String("sink", sink.Name()),
				zap.String("type", event.Type),
				zap.Error(err),
			)
		}
	}
}
