package rollup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/google/uuid"
)

// Snapshot is one loaded company/month. The forest is built once and must be treated as read-only.
type Snapshot struct {
	ID        string
	CompanyID string
	Period    rollup.Period
	Records   []rollup.EmployeeRecord
	Forest    []*rollup.TreeNode
	LoadedAt  time.Time

	seq uint64
}

func newSnapshot(companyID string, period rollup.Period, records []rollup.EmployeeRecord, names NameCollator, loadedAt time.Time) (*Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:        id.String(),
		CompanyID: companyID,
		Period:    period,
		Records:   records,
		Forest:    BuildForest(records, names),
		LoadedAt:  loadedAt,
	}, nil
}

func (s *Snapshot) Info() rollup.SnapshotInfo {
	return rollup.SnapshotInfo{
		SnapshotID:    s.ID,
		CompanyID:     s.CompanyID,
		Period:        s.Period.String(),
		EmployeeCount: len(s.Records),
		LoadedAt:      s.LoadedAt.Format(time.RFC3339),
	}
}

type snapshotKey struct {
	companyID string
	period    rollup.Period
}

// snapshotStore caches snapshots per company and month. Loads are numbered when they start;
// a finished load only replaces the cached entry when it started later, so a slow stale load
// can never overwrite a newer one.
//
// A snapshot is served while it is younger than the ttl. An entry nobody has read for a full
// ttl is evicted, however often it was reloaded in between.
type snapshotStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	seq     atomic.Uint64
	entries map[snapshotKey]*cacheEntry
}

type cacheEntry struct {
	snap       *Snapshot
	lastAccess time.Time
}

func newSnapshotStore(ttl time.Duration) *snapshotStore {
	return &snapshotStore{
		ttl:     ttl,
		entries: make(map[snapshotKey]*cacheEntry),
	}
}

// begin reserves the sequence number of a load that is about to start.
func (s *snapshotStore) begin() uint64 {
	return s.seq.Add(1)
}

// get returns the cached snapshot unless it has expired, and records the read.
// A ttl of 0 never expires.
func (s *snapshotStore) get(key snapshotKey, now time.Time) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	entry.lastAccess = now
	if s.ttl > 0 && now.Sub(entry.snap.LoadedAt) >= s.ttl {
		return nil, false
	}
	return entry.snap, true
}

// put stores snap under key if it is newer than the cached entry and reports whether it did.
// When it loses, the current entry is returned instead. Replacing an entry keeps its last read time.
func (s *snapshotStore) put(key snapshotKey, seq uint64, snap *Snapshot) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if ok && entry.snap.seq > seq {
		return entry.snap, false
	}
	snap.seq = seq
	if !ok {
		s.entries[key] = &cacheEntry{snap: snap, lastAccess: snap.LoadedAt}
		return snap, true
	}
	entry.snap = snap
	return snap, true
}

func (s *snapshotStore) keys() []snapshotKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]snapshotKey, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// evictExpired drops entries that have not been read for a full ttl and returns how many were removed.
func (s *snapshotStore) evictExpired(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, entry := range s.entries {
		if now.Sub(entry.lastAccess) >= s.ttl {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}
