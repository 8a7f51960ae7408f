package agent

import (
	"fmt"
	"sync"
	"time"
)

// Thought is one entry of the rolling autonomous-thought log.
type Thought struct {
	Cycle     int64     `json:"cycle"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// ThoughtLog is a capped rolling record of recent thoughts. Trimming here is
// the historical-record exception to the no-drop rule: old thoughts fall off
// the front, live queue actions never do.
type ThoughtLog struct {
	mu      sync.RWMutex
	cap     int
	entries []Thought
}

// NewThoughtLog constructs a log keeping at most capacity entries.
func NewThoughtLog(capacity int) *ThoughtLog {
	if capacity < 1 {
		capacity = 1
	}
	return &ThoughtLog{cap: capacity}
}

// Append records a thought, discarding the oldest entries beyond capacity.
func (l *ThoughtLog) Append(thought Thought) {
	l.mu.Lock()
	l.entries = append(l.entries, thought)
	if overflow := len(l.entries) - l.cap; overflow > 0 {
		l.entries = append([]Thought(nil), l.entries[overflow:]...)
	}
	l.mu.Unlock()
}

// Recent returns up to n thoughts, oldest first, most recent last.
func (l *ThoughtLog) Recent(n int) []Thought {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Thought, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the number of retained thoughts.
func (l *ThoughtLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// thoughtTemplates are the canned observations the loop rotates through.
// Content is deliberately theater; the transport around it is not.
var thoughtTemplates = []string{
	"analyzing the codebase for potential optimizations",
	"reviewing recent changes for recurring patterns",
	"checking whether any watched paths need attention",
	"considering whether the model cache is warm enough",
	"reflecting on recently processed actions",
	"drafting a status summary in case anyone asks",
	"looking for idle capacity worth exploiting",
	"verifying behavior timers are keeping up",
}

func synthesizeThought(cycle int64, pendingActions int) string {
	template := thoughtTemplates[int(cycle)%len(thoughtTemplates)]
	if pendingActions > 0 {
		return fmt.Sprintf("%s (%d actions pending)", template, pendingActions)
	}
	return template
}
