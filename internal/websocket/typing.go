package websocket

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TypingSender is the outbound side used by the notifier; Manager satisfies it
type TypingSender interface {
	SendTyping(groupID string, isTyping bool) error
}

// TypingNotifier drives the local user's typing indicator: the first
// keystroke sends a typing-start hint, inactivity sends typing-stop. Starts
// are rate-limited so rapid empty/non-empty input churn does not flood the
// socket.
type TypingNotifier struct {
	sender    TypingSender
	stopDelay time.Duration
	limiter   *rate.Limiter

	mu      sync.Mutex
	groupID string
	active  bool
	timer   *time.Timer
}

// NewTypingNotifier creates a notifier that clears the indicator after
// stopDelay of inactivity
func NewTypingNotifier(sender TypingSender, stopDelay time.Duration) *TypingNotifier {
	if stopDelay <= 0 {
		stopDelay = 2 * time.Second
	}
	return &TypingNotifier{
		sender:    sender,
		stopDelay: stopDelay,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Keystroke records typing activity in a group and resets the stop timer
func (t *TypingNotifier) Keystroke(groupID string) {
	t.mu.Lock()
	var prevGroup string
	if t.active && t.groupID != groupID {
		prevGroup = t.groupID
	}
	needStart := !t.active || prevGroup != ""
	t.groupID = groupID
	t.active = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.stopDelay, func() { t.expire(groupID) })
	t.mu.Unlock()

	if prevGroup != "" {
		_ = t.sender.SendTyping(prevGroup, false)
	}
	if needStart && t.limiter.Allow() {
		_ = t.sender.SendTyping(groupID, true)
	}
}

// Stop cancels the pending timer and flushes a final stop hint. Call it when
// the input surface is torn down so no timer fires into a dead session.
func (t *TypingNotifier) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	wasActive := t.active
	groupID := t.groupID
	t.active = false
	t.mu.Unlock()

	if wasActive {
		_ = t.sender.SendTyping(groupID, false)
	}
}

func (t *TypingNotifier) expire(groupID string) {
	t.mu.Lock()
	if !t.active || t.groupID != groupID {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.timer = nil
	t.mu.Unlock()

	_ = t.sender.SendTyping(groupID, false)
}
