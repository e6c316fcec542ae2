package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu          sync.Mutex
	solvability []bool
	progress    []string
	written     []*Solution
}

func (r *recordingReporter) ReportSolvability(isPerfect bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solvability = append(r.solvability, isPerfect)
}

func (r *recordingReporter) ReportProgress(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, line)
}

func (r *recordingReporter) WriteSolution(solution *Solution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written = append(r.written, solution)
}

// blockingReporter 在第一条最优解进度上阻塞，直到 release 被关闭
type blockingReporter struct {
	recordingReporter
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *blockingReporter) ReportProgress(line string) {
	if strings.HasPrefix(line, "当前最优解") {
		r.once.Do(func() {
			close(r.entered)
			<-r.release
		})
	}
	r.recordingReporter.ReportProgress(line)
}

func TestSchedulerWritesExactlyOnce(t *testing.T) {
	input := newHardInput(t)
	reporter := &recordingReporter{}

	s, err := New(input, testParameters(), reporter, nil)
	require.NoError(t, err)

	best := s.Schedule(context.Background())

	require.NotNil(t, best)
	require.Len(t, reporter.written, 1)
	assert.Same(t, best, reporter.written[0])
	assert.Equal(t, []bool{true}, reporter.solvability)
	assert.NotEmpty(t, reporter.progress)
}

func TestSchedulerStopsAtOptimalCost(t *testing.T) {
	input := newTestInput(t, Month{Length: 4, FreeDays: []int{2}},
		EmployeeSpec{DaysToWorkTotal: 2, MaxLengthOfShift: 2},
		EmployeeSpec{DaysToWorkTotal: 2, DaysToWorkAtFreeDay: 1},
	)
	params := testParameters()
	params.Workers = 8
	params.MaxIterationsWithoutImprovement = 1_000_000
	reporter := &recordingReporter{}

	s, err := New(input, params, reporter, nil)
	require.NoError(t, err)

	best := s.Schedule(context.Background())

	assert.Equal(t, OptimalCost, best.Cost())
	assert.Len(t, reporter.written, 1)
}

func TestSchedulerReportsUnsolvableInputOnce(t *testing.T) {
	input := newTestInput(t, Month{Length: 3},
		EmployeeSpec{DaysToWorkTotal: 1, FixedDays: []int{2}},
		EmployeeSpec{DaysToWorkTotal: 2, UnavailableDays: []int{0}},
	)
	reporter := &recordingReporter{}

	s, err := New(input, testParameters(), reporter, nil)
	require.NoError(t, err)

	best := s.Schedule(context.Background())

	require.NotNil(t, best)
	assert.Equal(t, []bool{false}, reporter.solvability)
	assert.Len(t, reporter.written, 1)
}

func TestSchedulerParallelSearchDoesNotRegress(t *testing.T) {
	input := newHardInput(t)

	single := testParameters()
	single.Workers = 1
	s, err := New(input, single, nil, nil)
	require.NoError(t, err)
	singleBest := s.Schedule(context.Background())

	parallel := testParameters()
	parallel.Workers = 4
	parallel.Concurrency = 2
	s, err = New(input, parallel, nil, nil)
	require.NoError(t, err)
	parallelBest := s.Schedule(context.Background())

	assert.LessOrEqual(t, parallelBest.Cost(), singleBest.Cost())
}

func TestSchedulerWithCancelledContext(t *testing.T) {
	input := newHardInput(t)
	reporter := &recordingReporter{}

	s, err := New(input, testParameters(), reporter, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	best := s.Schedule(ctx)

	initial := newInitialSolution(input, testParameters())
	require.NotNil(t, best)
	assert.Equal(t, initial.Cost(), best.Cost())
	assert.Len(t, reporter.written, 1)
}

func TestSchedulerStop(t *testing.T) {
	input := newHardInput(t)
	params := testParameters()
	params.MaxIterationsWithoutImprovement = 1_000_000_000
	params.Seed = 1
	reporter := &recordingReporter{}

	s, err := New(input, params, reporter, nil)
	require.NoError(t, err)

	done := make(chan *Solution)
	go func() {
		done <- s.Schedule(context.Background())
	}()

	require.Eventually(t, func() bool {
		reporter.mu.Lock()
		defer reporter.mu.Unlock()
		return len(reporter.solvability) > 0
	}, defaultWait, defaultTick)
	s.Stop()

	best := <-done
	require.NotNil(t, best)
	assert.Len(t, reporter.written, 1)
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	input := newHardInput(t)
	params := testParameters()
	params.Workers = 0

	_, err := New(input, params, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestSchedulerStopBeforeSchedule(t *testing.T) {
	input := newHardInput(t)
	params := testParameters()
	params.MaxIterationsWithoutImprovement = 1_000_000_000
	reporter := &recordingReporter{}

	s, err := New(input, params, reporter, nil)
	require.NoError(t, err)

	s.Stop()
	best := s.Schedule(context.Background())

	initial := newInitialSolution(input, params)
	require.NotNil(t, best)
	assert.Equal(t, initial.Cost(), best.Cost())
	assert.Len(t, reporter.written, 1)
}

func TestSchedulerDoesNotHoldLockWhileReporting(t *testing.T) {
	input := newHardInput(t)
	reporter := &blockingReporter{entered: make(chan struct{}), release: make(chan struct{})}

	s, err := New(input, testParameters(), reporter, nil)
	require.NoError(t, err)

	done := make(chan *Solution, 1)
	go func() {
		done <- s.Schedule(context.Background())
	}()

	select {
	case <-reporter.entered:
	case <-time.After(defaultWait):
		t.Fatal("没有收到最优解进度")
	}

	// 进度报告被阻塞时其他搜索仍然可以获取锁
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(defaultWait):
		t.Fatal("Stop 被进度报告阻塞")
	}

	close(reporter.release)
	select {
	case best := <-done:
		require.NotNil(t, best)
	case <-time.After(defaultWait):
		t.Fatal("排班没有结束")
	}
	assert.Len(t, reporter.written, 1)
	assert.Equal(t, []bool{true}, reporter.solvability)
}
