package usecase

import (
	"context"
	"sync"
	"time"

	"foodshare/pkg/logger"
)

// TypingSink is where a TypingTracker writes its transitions.
type TypingSink interface {
	SetTypingIndicator(ctx context.Context, chatID, userID, userName string) error
	ClearTypingIndicator(ctx context.Context, chatID, userID string) error
}

// TypingTracker is the Idle -> Typing -> Idle machine of one user in one
// chat. The first non-empty input enters Typing; every input while typing
// restarts the inactivity timer; the timer firing or Sent returns to Idle.
// Close must be called when the user leaves the chat.
type TypingTracker struct {
	mu sync.Mutex
	// writeMu orders sink writes; written is what the sink last accepted.
	writeMu  sync.Mutex
	written  bool
	sink     TypingSink
	ctx      context.Context
	chatID   string
	userID   string
	userName string
	timeout  time.Duration
	typing   bool
	timer    *time.Timer
	gen      uint64
	closed   bool
}

func NewTypingTracker(ctx context.Context, sink TypingSink, chatID, userID, userName string, timeout time.Duration) *TypingTracker {
	return &TypingTracker{
		sink:     sink,
		ctx:      context.WithoutCancel(ctx),
		chatID:   chatID,
		userID:   userID,
		userName: userName,
		timeout:  timeout,
	}
}

func (t *TypingTracker) Input(text string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	enter := !t.typing && text != ""
	if enter {
		t.typing = true
	}
	if t.typing {
		t.armLocked()
	}
	t.mu.Unlock()

	if enter {
		t.flush()
	}
}

// Sent leaves Typing immediately, without waiting for the timer.
func (t *TypingTracker) Sent() {
	t.exit(false)
}

// Close cancels the timer and clears the indicator if it is set. Calls
// after the first are no-ops.
func (t *TypingTracker) Close() {
	t.exit(true)
}

func (t *TypingTracker) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

func (t *TypingTracker) exit(closing bool) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if closing {
		t.closed = true
	}
	t.stopLocked()
	wasTyping := t.typing
	t.typing = false
	t.mu.Unlock()

	if wasTyping {
		t.flush()
	}
}

func (t *TypingTracker) armLocked() {
	t.stopLocked()
	gen := t.gen
	t.timer = time.AfterFunc(t.timeout, func() { t.expire(gen) })
}

// stopLocked invalidates any pending timer, including one whose function
// is already running.
func (t *TypingTracker) stopLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *TypingTracker) expire(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen || !t.typing {
		t.mu.Unlock()
		return
	}
	t.typing = false
	t.timer = nil
	t.mu.Unlock()

	t.flush()
}

// flush writes the current state if the sink does not hold it yet. The
// state is read after writeMu is taken, so a slow set that finishes after
// the timer fired is always followed by the clear.
func (t *TypingTracker) flush() {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	want := t.typing
	t.mu.Unlock()
	if want == t.written {
		return
	}

	if want {
		if err := t.sink.SetTypingIndicator(t.ctx, t.chatID, t.userID, t.userName); err != nil {
			logger.Warn("TypingTracker: set chat=%s, user=%s: %v", t.chatID, t.userID, err)
			return
		}
	} else {
		if err := t.sink.ClearTypingIndicator(t.ctx, t.chatID, t.userID); err != nil {
			logger.Warn("TypingTracker: clear chat=%s, user=%s: %v", t.chatID, t.userID, err)
			return
		}
	}
	t.written = want
}
