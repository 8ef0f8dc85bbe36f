package domain

import (
	"sync"
	"time"
)

const (
	NavigateAtRetry  = 2
	AbandonAtRetry   = 30
	RejectionBackoff = 30 * time.Second
)

var refreshAtRetry = map[int]struct{}{6: {}, 12: {}, 20: {}}

type Escalation int

const (
	EscalateNone Escalation = iota
	EscalateNavigate
	EscalateRefresh
	EscalateAbandon
)

func (e Escalation) String() string {
	switch e {
	case EscalateNavigate:
		return "navigate"
	case EscalateRefresh:
		return "refresh"
	case EscalateAbandon:
		return "abandon"
	default:
		return "none"
	}
}

// EscalationFor maps a failed-refresh count to the recovery step it triggers.
func EscalationFor(retryCount int) Escalation {
	switch {
	case retryCount >= AbandonAtRetry:
		return EscalateAbandon
	case retryCount == NavigateAtRetry:
		return EscalateNavigate
	}
	if _, ok := refreshAtRetry[retryCount]; ok {
		return EscalateRefresh
	}
	return EscalateNone
}

// RefreshBackoff is the wait before the next address refresh after retryCount failures.
func RefreshBackoff(retryCount int) time.Duration {
	switch {
	case retryCount <= 0:
		return 0
	case retryCount < NavigateAtRetry:
		return 15 * time.Second
	case retryCount < 6:
		return 30 * time.Second
	case retryCount < 12:
		return time.Minute
	case retryCount < 20:
		return 2 * time.Minute
	default:
		return 5 * time.Minute
	}
}

// ConnectionState is the retry bookkeeping kept for one monitored discussion.
// The socket handle itself lives with the connection manager.
type ConnectionState struct {
	Timeout      time.Duration
	LastAttempt  time.Time
	RetryCount   int
	NeedsRefresh bool
}

func (s ConnectionState) Due(now time.Time) bool {
	if s.LastAttempt.IsZero() {
		return true
	}
	return !now.Before(s.LastAttempt.Add(s.Timeout))
}

func (s *ConnectionState) RecordRefreshFailure(now time.Time) Escalation {
	s.RetryCount++
	s.LastAttempt = now
	s.Timeout = RefreshBackoff(s.RetryCount)
	return EscalationFor(s.RetryCount)
}

func (s *ConnectionState) RecordRejection(now time.Time) {
	s.RetryCount = 0
	s.Timeout = RejectionBackoff
	s.LastAttempt = now
	s.NeedsRefresh = true
}

func (s *ConnectionState) Reset(now time.Time) {
	s.RetryCount = 0
	s.Timeout = 0
	s.LastAttempt = now
	s.NeedsRefresh = false
}

// RecoveryLock is the single slot guarding the recovery browser.
type RecoveryLock struct {
	mu     sync.Mutex
	holder string
}

func (l *RecoveryLock) TryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != "" && l.holder != id {
		return false
	}
	l.holder = id
	return true
}

func (l *RecoveryLock) Release(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == "" || l.holder != id {
		return false
	}
	l.holder = ""
	return true
}

func (l *RecoveryLock) Holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}

func (l *RecoveryLock) HeldBy(id string) bool {
	return l.Holder() == id
}

// Available reports whether id may run an attempt: the slot is free or already its own.
func (l *RecoveryLock) Available(id string) bool {
	holder := l.Holder()
	return holder == "" || holder == id
}
