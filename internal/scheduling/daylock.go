package scheduling

import (
	"sync"
	"time"

	"github.com/clinicdesk/platform/internal/config"
)

// DayLocks serializes booking attempts per calendar day (or per day+doctor
// under per-doctor scope) so a slot check and the insert it guards execute as
// one unit. Requests for different days proceed in parallel.
type DayLocks struct {
	scope config.ConflictScope
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDayLocks creates an empty lock table for the given conflict scope.
func NewDayLocks(scope config.ConflictScope) *DayLocks {
	return &DayLocks{scope: scope, locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock covering the instant's calendar day and returns the
// release function.
func (d *DayLocks) Lock(at time.Time, doctor string) func() {
	key := at.UTC().Format("2006-01-02")
	if d.scope == config.ScopeDoctor && doctor != "" {
		key += "|" + doctor
	}

	d.mu.Lock()
	lock, ok := d.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[key] = lock
	}
	d.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
