// Package scheduler implements an XLSX-aware task scheduler, wrapping
// internal/workpool with per-task memory/duration hints, dependency-gated
// eligibility and a resource admission check.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wuxianggujun/tinaxlsx-go/internal/workpool"
)

// TaskType buckets a scheduled task by the kind of work it performs, used
// to aggregate per-task-type stats.
type TaskType int

const (
	TaskCellProcessing TaskType = iota
	TaskXMLGeneration
	TaskCompression
	TaskIO
	TaskStringProcessing
)

func (t TaskType) String() string {
	switch t {
		case TaskCellProcessing:
			return "cell_processing"
		case TaskXMLGeneration:
			return "xml_generation"
		case TaskCompression:
			return "compression"
		case TaskIO:
			return "io"
		case TaskStringProcessing:
			return "string_processing"
		default:
			return "unknown"
	}
}

// DefaultResourceThreshold is the memory-hint admission threshold of
//  (512 MiB): a task whose MemoryHint exceeds the scheduler's
// remaining budget is deferred rather than admitted alongside others.
const DefaultResourceThreshold int64 = 512 << 20

// TaskSpec describes one schedulable unit of work before it is admitted.
type TaskSpec struct {
	ID string
	Type TaskType
	MemoryHint int64 // estimated peak bytes, used for admission
	DependsOn []string
	Run workpool.Task
}

// TypeStats accumulates per-task-type counters.
type TypeStats struct {
	Submitted int64
	Completed int64
	Failed int64
}

// Scheduler admits TaskSpecs once their dependencies have completed and the
// resource threshold allows it, then hands them to an underlying
// work-stealing Pool.
type Scheduler struct {
	pool *workpool.Pool
	threshold int64

	mu sync.Mutex
	done map[string]bool
	inflight map[string]int64 // id -> memory hint, for budget accounting
	pending []*TaskSpec
	typeStats map[TaskType]*TypeStats
}

// New creates a scheduler backed by a workpool.Pool of the given worker
// count and the given resource threshold (<=0 uses DefaultResourceThreshold).
func New(workers int, threshold int64) *Scheduler {
	if threshold <= 0 {
		threshold = DefaultResourceThreshold
	}
	return &Scheduler{
		pool: workpool.New(workers),
		threshold: threshold,
		done: make(map[string]bool),
		inflight: make(map[string]int64),
		typeStats: make(map[TaskType]*TypeStats),
	}
}

// NewTaskID mints a correlation token for a task, backed by google/uuid.
// These IDs never appear in the OOXML wire format itself (which uses
// rIdN strings); they exist purely for diagnostic event tagging and
// dependency wiring.
func NewTaskID() string { return uuid.NewString() }

// Submit registers spec. It will not actually run until Drain is called
// and its dependencies are satisfied and the resource budget admits it.
func (s *Scheduler) Submit(spec *TaskSpec) error {
	if spec.ID == "" {
		spec.ID = NewTaskID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, spec)
	st := s.statsFor(spec.Type)
	st.Submitted++
	return nil
}

func (s *Scheduler) statsFor(t TaskType) *TypeStats {
	st, ok := s.typeStats[t]
	if !ok {
		st = &TypeStats{}
		s.typeStats[t] = st
	}
	return st
}

// eligible reports whether every dependency of spec has completed and
// admitting it would not exceed the resource threshold.
func (s *Scheduler) eligible(spec *TaskSpec) bool {
	for _, dep := range spec.DependsOn {
		if !s.done[dep] {
			return false
		}
	}
	var inflightTotal int64
	for _, v := range s.inflight {
		inflightTotal += v
	}
	return inflightTotal+spec.MemoryHint <= s.threshold
}

// Drain repeatedly admits every currently-eligible pending task, runs them
// through the work-stealing pool, and blocks until the entire pending set
// has completed (or the context is cancelled), returning the first error
// encountered.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return nil
		}
		var batch []*TaskSpec
		var remaining []*TaskSpec
		for _, spec := range s.pending {
			if s.eligible(spec) {
				batch = append(batch, spec)
				s.inflight[spec.ID] = spec.MemoryHint
			} else {
				remaining = append(remaining, spec)
			}
		}
		s.pending = remaining
		s.mu.Unlock()

		if len(batch) == 0 {
			return fmt.Errorf("scheduler: no eligible task could be admitted out of %d pending (dependency cycle or resource threshold too low)", len(remaining))
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(batch))
		for _, spec := range batch {
			spec := spec
			wg.Add(1)
			s.pool.Submit(func(taskCtx context.Context) error {
				defer wg.Done()
				err := spec.Run(taskCtx)
				s.mu.Lock()
				delete(s.inflight, spec.ID)
				s.done[spec.ID] = true
				st := s.statsFor(spec.Type)
				if err != nil {
					st.Failed++
				} else {
					st.Completed++
				}
				s.mu.Unlock()
				if err != nil {
					errs <- err
				}
				return err
				}, workpool.PriorityNormal)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			return err
		}
	}
}

// Stats returns a snapshot of per-task-type counters.
func (s *Scheduler) Stats() map[TaskType]TypeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[TaskType]TypeStats, len(s.typeStats))
	for k, v := range s.typeStats {
		out[k] = *v
	}
	return out
}

// Shutdown stops the underlying pool.
func (s *Scheduler) Shutdown() { s.pool.Shutdown() }
