package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionTyping      = "typing"
	ActionHTTP        = "http"
)

// Policy is the refill interval and burst size of one action.
type Policy struct {
	Every time.Duration
	Burst int
}

// DefaultPolicies allow 10 messages per minute, 5 new chats per hour,
// 30 typing signals per minute and 120 HTTP requests per minute per client.
var DefaultPolicies = map[string]Policy{
	ActionSendMessage: {Every: 6 * time.Second, Burst: 10},
	ActionCreateChat:  {Every: 12 * time.Minute, Burst: 5},
	ActionTyping:      {Every: 2 * time.Second, Burst: 30},
	ActionHTTP:        {Every: 500 * time.Millisecond, Burst: 60},
}

var fallbackPolicy = Policy{Every: 3 * time.Second, Burst: 20}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	mu       sync.Mutex
	policies map[string]Policy
	entries  map[string]*entry
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithPolicies(DefaultPolicies)
}

func NewRateLimiterWithPolicies(policies map[string]Policy) *RateLimiter {
	return &RateLimiter{
		policies: policies,
		entries:  make(map[string]*entry),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

func (rl *RateLimiter) limiter(key, action string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if e, ok := rl.entries[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	policy, ok := rl.policies[action]
	if !ok {
		policy = fallbackPolicy
	}
	e := &entry{
		limiter:  rate.NewLimiter(rate.Every(policy.Every), policy.Burst),
		lastSeen: now,
	}
	rl.entries[key] = e
	return e.limiter
}

// Allow consumes a token for userID's action. When denied it returns how
// long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	l := rl.limiter(userID+":"+action, action)
	now := rl.now()
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Tokens reports the tokens currently left for userID's action.
func (rl *RateLimiter) Tokens(userID, action string) float64 {
	key := userID + ":" + action
	rl.mu.Lock()
	e, ok := rl.entries[key]
	rl.mu.Unlock()
	if !ok {
		policy, known := rl.policies[action]
		if !known {
			policy = fallbackPolicy
		}
		return float64(policy.Burst)
	}
	return e.limiter.TokensAt(rl.now())
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	for key, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, key)
		}
	}
}

func (rl *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-rl.stopCh:
				return
			}
		}
	}()
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}
