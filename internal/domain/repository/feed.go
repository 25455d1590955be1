package repository

import "sync"

// Feed is a live result stream. Updates is closed when the feed ends; Err
// then reports why (nil after Close). Close must be called exactly once
// per feed and is safe to call again.
type Feed[T any] interface {
	Updates() <-chan T
	Err() error
	Close()
}

type mappedFeed[S, T any] struct {
	src     Feed[S]
	fn      func(S) (T, bool)
	updates chan T
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	err     error
}

// MapFeed converts every update of src with fn. Updates for which fn
// returns false are skipped. Closing the result closes src.
func MapFeed[S, T any](src Feed[S], fn func(S) (T, bool)) Feed[T] {
	f := &mappedFeed[S, T]{
		src:     src,
		fn:      fn,
		updates: make(chan T, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *mappedFeed[S, T]) run() {
	defer close(f.done)
	defer close(f.updates)

	for {
		select {
		case <-f.stop:
			return
		case s, ok := <-f.src.Updates():
			if !ok {
				f.err = f.src.Err()
				return
			}
			t, emit := f.fn(s)
			if !emit {
				continue
			}
			select {
			case f.updates <- t:
			case <-f.stop:
				return
			}
		}
	}
}

func (f *mappedFeed[S, T]) Updates() <-chan T {
	return f.updates
}

func (f *mappedFeed[S, T]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

func (f *mappedFeed[S, T]) Close() {
	f.once.Do(func() {
		close(f.stop)
		<-f.done
		f.src.Close()
	})
}
