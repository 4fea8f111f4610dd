package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no record with the requested id exists in the partition.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned by Touch when the record exists but its timeout has elapsed.
	ErrExpired = errors.New("session expired")
	// ErrDuplicateID is returned by Insert when the id is already present in the partition.
	ErrDuplicateID = errors.New("duplicate session id")
	// ErrSourceNotFound is returned by Insert when the parent session is gone or expired.
	ErrSourceNotFound = errors.New("source session not found")
	// ErrInvalidRecord is returned by Insert for records missing identity fields.
	ErrInvalidRecord = errors.New("invalid session record")
)

// Store is the contract the engine relies on. All methods are safe for concurrent use.
type Store interface {
	// Insert stores rec. When limit > 0 and the (tenant, account, endpoint) group
	// already holds limit or more live records, the least recently accessed one is
	// removed first and returned.
	Insert(rec Record, limit int, now time.Time) (evicted []Record, err error)
	// Find returns a copy of the record without checking liveness or refreshing it.
	Find(tenantCode, accountID, id string) (Record, bool)
	// Touch checks liveness and refreshes LastAccess in one atomic step.
	Touch(tenantCode, accountID, id string, now time.Time) (Record, error)
	AllFor(tenantCode, accountID string) []Record
	// Remove deletes a single record and leaves its descendants in place. The
	// engine revokes through RemoveTree; Remove serves callers that manage lineage
	// themselves.
	Remove(tenantCode, accountID, id string) (Record, bool)
	// RemoveTree removes id and every record derived from it. The root is the
	// first element of the result. found is false when the root is absent.
	RemoveTree(tenantCode, accountID, id string) (removed []Record, found bool)
	RemoveAll(tenantCode, accountID string) []Record
	SweepExpired(now time.Time) ([]Record, error)
	Len() int
}

type partition struct {
	mu      sync.Mutex
	records map[string]*Record
	retired bool
}

// MemoryStore is the in-process [Store]. Partitions are created on first insert
// and retired once they become empty.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[PartitionKey]*partition
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		partitions: make(map[PartitionKey]*partition),
	}
}

// acquire returns the locked partition for key. With create=false it returns nil
// when the partition does not exist.
func (s *MemoryStore) acquire(key PartitionKey, create bool) *partition {
	for {
		s.mu.RLock()
		p := s.partitions[key]
		s.mu.RUnlock()

		if p == nil {
			if !create {
				return nil
			}
			s.mu.Lock()
			p = s.partitions[key]
			if p == nil {
				p = &partition{records: make(map[string]*Record)}
				s.partitions[key] = p
			}
			s.mu.Unlock()
		}

		p.mu.Lock()
		if !p.retired {
			return p
		}
		// Retired between lookup and lock; the map holds a newer partition (or none).
		p.mu.Unlock()
	}
}

// release unlocks p, retiring it first when it holds no records.
// Lock order is partition then registry; acquire never holds both.
func (s *MemoryStore) release(key PartitionKey, p *partition) {
	if len(p.records) == 0 && !p.retired {
		s.mu.Lock()
		if s.partitions[key] == p {
			delete(s.partitions, key)
		}
		p.retired = true
		s.mu.Unlock()
	}
	p.mu.Unlock()
}

// Insert implements Store.
func (s *MemoryStore) Insert(rec Record, limit int, now time.Time) ([]Record, error) {
	if rec.ID == "" || rec.TenantCode == "" || rec.AccountID == "" || rec.Endpoint == "" {
		return nil, ErrInvalidRecord
	}
	if rec.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrInvalidRecord)
	}

	key := rec.Key()
	p := s.acquire(key, true)
	defer s.release(key, p)

	if _, exists := p.records[rec.ID]; exists {
		return nil, ErrDuplicateID
	}
	if rec.SourceID != "" {
		parent, ok := p.records[rec.SourceID]
		if !ok || !parent.Live(now) {
			return nil, ErrSourceNotFound
		}
	}

	var evicted []Record
	if limit > 0 {
		group := make([]*Record, 0, limit)
		for _, r := range p.records {
			if r.Endpoint == rec.Endpoint && r.Live(now) {
				group = append(group, r)
			}
		}
		if len(group) >= limit {
			sortByLastAccess(group)
			oldest := group[0]
			delete(p.records, oldest.ID)
			evicted = append(evicted, *oldest)
		}
	}

	stored := rec
	if stored.LastAccess.IsZero() {
		stored.LastAccess = now
	}
	if stored.IssuedAt.IsZero() {
		stored.IssuedAt = now
	}
	p.records[stored.ID] = &stored

	return evicted, nil
}

// Find implements Store. It does not refresh LastAccess.
func (s *MemoryStore) Find(tenantCode, accountID, id string) (Record, bool) {
	key := PartitionKey{TenantCode: tenantCode, AccountID: accountID}
	p := s.acquire(key, false)
	if p == nil {
		return Record{}, false
	}
	defer s.release(key, p)

	r, ok := p.records[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Touch removes the record when it has already expired so a stale entry is not
// reported twice.
func (s *MemoryStore) Touch(tenantCode, accountID, id string, now time.Time) (Record, error) {
	key := PartitionKey{TenantCode: tenantCode, AccountID: accountID}
	p := s.acquire(key, false)
	if p == nil {
		return Record{}, ErrNotFound
	}
	defer s.release(key, p)

	r, ok := p.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !r.Live(now) {
		delete(p.records, id)
		return *r, ErrExpired
	}
	if now.After(r.LastAccess) {
		r.LastAccess = now
	}
	return *r, nil
}

// AllFor implements Store.
func (s *MemoryStore) AllFor(tenantCode, accountID string) []Record {
	key := PartitionKey{TenantCode: tenantCode, AccountID: accountID}
	p := s.acquire(key, false)
	if p == nil {
		return nil
	}
	defer s.release(key, p)

	out := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.Before(out[j].IssuedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove implements Store. Descendants are left in place.
func (s *MemoryStore) Remove(tenantCode, accountID, id string) (Record, bool) {
	key := PartitionKey{TenantCode: tenantCode, AccountID: accountID}
	p := s.acquire(key, false)
	if p == nil {
		return Record{}, false
	}
	defer s.release(key, p)

	r, ok := p.records[id]
	if !ok {
		return Record{}, false
	}
	delete(p.records, id)
	return *r, true
}

// RemoveTree implements Store.
func (s *MemoryStore) RemoveTree(tenantCode, accountID, id string) ([]Record, bool) {
	key := PartitionKey{TenantCode: tenantCode, AccountID: accountID}
	p := s.acquire(key, false)
	if p == nil {
		return nil, false
	}
	defer s.release(key, p)

	root, ok := p.records[id]
	if !ok {
		return nil, false
	}

	snapshot := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		snapshot = append(snapshot, *r)
	}

	removed := make([]Record, 0, 1)
	removed = append(removed, *root)
	delete(p.records, id)
	for _, childID := range Descendants(snapshot, id) {
		if r, ok := p.records[childID]; ok {
			removed = append(removed, *r)
			delete(p.records, childID)
		}
	}
	return removed, true
}

// RemoveAll implements Store.
func (s *MemoryStore) RemoveAll(tenantCode, accountID string) []Record {
	key := PartitionKey{TenantCode: tenantCode, AccountID: accountID}
	p := s.acquire(key, false)
	if p == nil {
		return nil
	}
	defer s.release(key, p)

	out := make([]Record, 0, len(p.records))
	for id, r := range p.records {
		out = append(out, *r)
		delete(p.records, id)
	}
	return out
}

// SweepExpired removes every record that is not live at now. Each partition is
// swept under its own lock in two phases (collect, then delete), so a Touch that
// won the lock first keeps its record. A failure in one partition is reported in
// the joined error and does not stop the others.
func (s *MemoryStore) SweepExpired(now time.Time) ([]Record, error) {
	s.mu.RLock()
	keys := make([]PartitionKey, 0, len(s.partitions))
	for key := range s.partitions {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	var (
		removed []Record
		errs    []error
	)
	for _, key := range keys {
		swept, err := s.sweepPartition(key, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, swept...)
	}
	return removed, errors.Join(errs...)
}

func (s *MemoryStore) sweepPartition(key PartitionKey, now time.Time) (removed []Record, err error) {
	p := s.acquire(key, false)
	if p == nil {
		return nil, nil
	}
	defer s.release(key, p)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sweep partition %s/%s: %v", key.TenantCode, key.AccountID, rec)
		}
	}()

	expired := make([]string, 0)
	for id, r := range p.records {
		if !r.Live(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		removed = append(removed, *p.records[id])
		delete(p.records, id)
	}
	return removed, nil
}

// Len returns the total number of stored records, live or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	parts := make([]*partition, 0, len(s.partitions))
	for _, p := range s.partitions {
		parts = append(parts, p)
	}
	s.mu.RUnlock()

	total := 0
	for _, p := range parts {
		p.mu.Lock()
		if !p.retired {
			total += len(p.records)
		}
		p.mu.Unlock()
	}
	return total
}

// Partitions returns the number of non-empty partitions.
func (s *MemoryStore) Partitions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.partitions)
}

func sortByLastAccess(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.LastAccess.Equal(b.LastAccess) {
			return a.LastAccess.Before(b.LastAccess)
		}
		if !a.IssuedAt.Equal(b.IssuedAt) {
			return a.IssuedAt.Before(b.IssuedAt)
		}
		return a.ID < b.ID
	})
}

var _ Store = (*MemoryStore)(nil)
