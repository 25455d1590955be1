package docstore

import (
	"context"
	"sync"
)

// Subscription is a live query. Updates carries the latest full result
// set; intermediate snapshots may be skipped when the reader is slower
// than the writers, but the last one is never lost. The channel is closed
// when the subscription ends, after which Err reports why.
type Subscription struct {
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan []*Document
	done    chan struct{}
	once    sync.Once
	err     error
}

func newSubscription(parent context.Context) *Subscription {
	ctx, cancel := context.WithCancel(parent)
	return &Subscription{
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan []*Document, 1),
		done:    make(chan struct{}),
	}
}

func (s *Subscription) Updates() <-chan []*Document {
	return s.updates
}

// Err is only meaningful once Updates is closed.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close stops the subscription and waits for its producer to exit.
// Additional calls are no-ops.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// publish replaces any undelivered snapshot with docs. Only the producer
// goroutine calls publish and finish.
func (s *Subscription) publish(docs []*Document) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- docs:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Subscription) finish(err error) {
	if s.ctx.Err() == nil {
		s.err = err
	}
	s.cancel()
	close(s.updates)
	close(s.done)
}
