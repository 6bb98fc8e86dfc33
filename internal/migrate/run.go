package migrate

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/tasks"
)

// Progress receives run progress events.
type Progress interface {
	SetDescription(description string)
	SetTotal(total int)
	Add(delta int)
	Done()
}

type nopProgress struct{}

func (nopProgress) SetDescription(string) {}
func (nopProgress) SetTotal(int)          {}
func (nopProgress) Add(int)               {}
func (nopProgress) Done()                 {}

// Run migrates every task with bounded concurrency. Task failures are
// counted and persisted, not returned; Run only errors when the context
// is cancelled.
func (m *Migrator) Run(ctx context.Context, list []tasks.Task, progress Progress) (*Stats, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	stats := newStats(len(list))
	progress.SetTotal(len(list))

	sem := semaphore.NewWeighted(int64(m.opts.Concurrency))
	var wg sync.WaitGroup

	for _, task := range list {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return stats, err
		}
		task := task
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			progress.SetDescription(task.Title)
			if err := m.migrateTask(ctx, task, stats); err != nil {
				stats.addFailed()
				m.opts.Logf("migrate %q: %v", task.Title, err)
				if m.ledger != nil {
					m.ledger.RecordContentFailure(task.SourceURL, task.Title, joinHierarchy(task.Hierarchy), err.Error())
				}
			}
			progress.Add(1)
		}()
	}
	wg.Wait()

	if pending := m.registry.Pending(); pending > 0 {
		m.opts.Logf("waiting up to %s for %d pending associations", m.opts.AssociationTimeout, pending)
	}
	if !m.registry.Wait(m.opts.AssociationTimeout) {
		m.opts.Logf("association wait timed out with %d still pending", m.registry.Pending())
	}
	progress.Done()
	return stats, nil
}

func joinHierarchy(levels []string) string {
	return strings.Join(levels, " > ")
}
