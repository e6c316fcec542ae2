package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Reporter 接收排班过程中的通知
type Reporter interface {
	// ReportSolvability 报告初始匹配是否覆盖了所有班次，每次排班最多调用一次
	ReportSolvability(isPerfect bool)
	// ReportProgress 报告可读的进度信息
	ReportProgress(line string)
	// WriteSolution 输出最终结果，每次排班恰好调用一次
	WriteSolution(solution *Solution)
}

type nopReporter struct{}

func (nopReporter) ReportSolvability(bool)  {}
func (nopReporter) ReportProgress(string)   {}
func (nopReporter) WriteSolution(*Solution) {}

// Scheduler 并行运行多个独立的禁忌搜索，并汇总代价最低的结果
type Scheduler struct {
	input    *Input
	params   Parameters
	reporter Reporter
	logger   *slog.Logger

	mu                  sync.Mutex
	best                *Solution
	finished            int
	written             bool
	solvabilityReported bool
	stopped             bool
	stopRequested       bool
	cancel              context.CancelFunc
}

func New(input *Input, params Parameters, reporter Reporter, logger *slog.Logger) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		input:    input,
		params:   params,
		reporter: reporter,
		logger:   logger,
	}, nil
}

// Schedule 阻塞直到所有搜索结束，返回代价最低的解
func (s *Scheduler) Schedule(ctx context.Context) *Solution {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	if s.stopRequested {
		cancel()
	}
	s.mu.Unlock()

	seed := s.params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s.reporter.ReportProgress(fmt.Sprintf("开始计算排班，共 %d 个并行搜索", s.params.Workers))

	g := new(errgroup.Group)
	if s.params.Concurrency > 0 {
		g.SetLimit(s.params.Concurrency)
	}
	for worker := 0; worker < s.params.Workers; worker++ {
		worker := worker
		g.Go(func() error {
			s.submit(s.runWorker(ctx, worker, seed+int64(worker)))
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best
}

// Stop 通知所有搜索在下一轮迭代时结束，在 Schedule 之前调用时搜索会立即结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopRequested = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) runWorker(ctx context.Context, worker int, seed int64) *Solution {
	model := NewCostModel(s.input, s.params)

	matching := NewMatcher(s.input, s.params).Match()
	s.reportSolvability(matching.IsPerfect)

	initial := NewSolution(model, matching.Assignment, s.params.RetriesPerSolution)
	logger := s.logger.With(slog.Int("worker", worker))
	search := NewTabuSearch(s.input, s.params, rand.New(rand.NewSource(seed)), logger)

	result := search.Run(ctx, initial)
	// 在当前 goroutine 中算好代价，汇总时只读取缓存
	result.Cost()
	return result
}

func (s *Scheduler) reportSolvability(isPerfect bool) {
	s.mu.Lock()
	alreadyReported := s.solvabilityReported
	s.solvabilityReported = true
	s.mu.Unlock()

	if alreadyReported {
		return
	}
	if !isPerfect {
		s.logger.Warn("无法为所有班次找到可用的日期，排班需求无法完全满足")
	}
	s.reporter.ReportSolvability(isPerfect)
}

// submit 汇总一个搜索的结果，Reporter 只在锁外调用
func (s *Scheduler) submit(solution *Solution) {
	cost := solution.Cost()

	s.mu.Lock()
	improved := s.best == nil || cost < s.best.Cost()
	if improved {
		s.best = solution
	}

	stopNow := cost <= OptimalCost && !s.stopped
	if stopNow {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}

	s.finished++
	shouldWrite := !s.written && s.finished >= s.params.Workers
	if shouldWrite {
		s.written = true
	}
	best := s.best
	s.mu.Unlock()

	if improved {
		s.logger.Info("当前最优解的代价", slog.Float64("cost", cost))
		s.reporter.ReportProgress(fmt.Sprintf("当前最优解的代价: %g", cost))
	}
	if stopNow {
		s.logger.Info("已找到最优解，停止其余搜索")
	}
	if shouldWrite {
		s.reporter.WriteSolution(best)
	}
}
