package migrate

import (
	"sync"
	"time"
)

// Stats accumulates run counters. Safe for concurrent use.
type Stats struct {
	mu      sync.Mutex
	started time.Time

	Total           int
	Migrated        int
	Reused          int
	Failed          int
	SectionsCreated int
	Associations    int
	AssociationErrs int
}

func newStats(total int) *Stats {
	return &Stats{started: time.Now(), Total: total}
}

func (s *Stats) addMigrated(sections int) {
	s.mu.Lock()
	s.Migrated++
	s.SectionsCreated += sections
	s.mu.Unlock()
}

func (s *Stats) addReused() {
	s.mu.Lock()
	s.Reused++
	s.mu.Unlock()
}

func (s *Stats) addFailed() {
	s.mu.Lock()
	s.Failed++
	s.mu.Unlock()
}

func (s *Stats) addAssociation(err error) {
	s.mu.Lock()
	if err != nil {
		s.AssociationErrs++
	} else {
		s.Associations++
	}
	s.mu.Unlock()
}

// Elapsed returns the wall time since the run started.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.started)
}

// Throughput returns migrated pages per minute.
func (s *Stats) Throughput() float64 {
	s.mu.Lock()
	done := s.Migrated + s.Reused
	s.mu.Unlock()

	minutes := s.Elapsed().Minutes()
	if minutes == 0 {
		return 0
	}
	return float64(done) / minutes
}

// Snapshot returns a copy safe to read without holding the lock.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		started:         s.started,
		Total:           s.Total,
		Migrated:        s.Migrated,
		Reused:          s.Reused,
		Failed:          s.Failed,
		SectionsCreated: s.SectionsCreated,
		Associations:    s.Associations,
		AssociationErrs: s.AssociationErrs,
	}
}
