package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsDependencyChainInOrder(t *testing.T) {
	s := New(4, 0)
	defer s.Shutdown()

	var mu sync.Mutex
	var order []string
	appendOrdered := func(v string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, v)
	}

	require.NoError(t, s.Submit(&TaskSpec{
		ID: "b",
		Type: TaskXMLGeneration,
		DependsOn: []string{"a"},
		Run: func(ctx context.Context) error {
			appendOrdered("b")
			return nil
		},
	}))
	require.NoError(t, s.Submit(&TaskSpec{
		ID: "a",
		Type: TaskCellProcessing,
		Run: func(ctx context.Context) error {
			appendOrdered("a")
			return nil
		},
	}))

	require.NoError(t, s.Drain(context.Background()))
	require.Equal(t, []string{"a", "b"}, order)
}

func TestSchedulerResourceThresholdAdmitsTaskWithinBudget(t *testing.T) {
	s := New(2, 100)
	defer s.Shutdown()

	var ran int32
	require.NoError(t, s.Submit(&TaskSpec{
		ID: "small",
		MemoryHint: 50,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		},
	}))

	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, int32(1), ran)
}

func TestSchedulerReportsFirstError(t *testing.T) {
	s := New(2, 0)
	defer s.Shutdown()
	require.NoError(t, s.Submit(&TaskSpec{
		ID: "x",
		Type: TaskIO,
		Run: func(ctx context.Context) error { return assertErr },
	}))
	err := s.Drain(context.Background())
	assert.Equal(t, assertErr, err)
}

func TestSchedulerDependencyCycleErrors(t *testing.T) {
	s := New(2, 0)
	defer s.Shutdown()
	require.NoError(t, s.Submit(&TaskSpec{ID: "a", DependsOn: []string{"b"}, Run: func(context.Context) error { return nil }}))
	require.NoError(t, s.Submit(&TaskSpec{ID: "b", DependsOn: []string{"a"}, Run: func(context.Context) error { return nil }}))
	err := s.Drain(context.Background())
	assert.Error(t, err)
}

func TestNewTaskIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewTaskID(), NewTaskID())
}

type assertErrType string

func (e assertErrType) Error() string { return string(e) }

var assertErr = assertErrType("boom")
