package memory

import (
	"context"
	"sync"
	"time"

	"github.com/splax/accounts/api/internal/repository"
)

const ledgerSweepInterval = 5 * time.Minute

// ResetLedger tracks consumed reset tokens in memory until they expire.
type ResetLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

var _ repository.ResetLedger = (*ResetLedger)(nil)

// NewResetLedger constructs a ledger and starts its expiry sweeper.
func NewResetLedger() *ResetLedger {
	l := &ResetLedger{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

func (l *ResetLedger) Consume(_ context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.entries[tokenID]; ok && now.Before(until) {
		return false, nil
	}
	l.entries[tokenID] = expiresAt
	return true, nil
}

func (l *ResetLedger) Release(_ context.Context, tokenID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, tokenID)
	return nil
}

func (l *ResetLedger) Close() error {
	l.once.Do(func() { close(l.stopCh) })
	return nil
}

func (l *ResetLedger) sweepLoop() {
	ticker := time.NewTicker(ledgerSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(l.now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *ResetLedger) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, until := range l.entries {
		if !now.Before(until) {
			delete(l.entries, id)
		}
	}
}
