package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
)

// redisReporter 将排班过程写入 Redis，并在结束时保存结果、通知发起者
type redisReporter struct {
	w           *Worker
	plan        *domain.RosterPlan
	job         domain.RosterJob
	employeeIDs []int64
	logger      *slog.Logger

	mu        sync.Mutex
	isPerfect bool
	err       error
}

func newRedisReporter(w *Worker, plan *domain.RosterPlan, job domain.RosterJob, employeeIDs []int64, logger *slog.Logger) *redisReporter {
	return &redisReporter{
		w:           w,
		plan:        plan,
		job:         job,
		employeeIDs: employeeIDs,
		logger:      logger,
		isPerfect:   true,
	}
}

func (r *redisReporter) ReportSolvability(isPerfect bool) {
	r.mu.Lock()
	r.isPerfect = isPerfect
	r.mu.Unlock()

	ctx, cancel := r.w.redisContext()
	defer cancel()

	if err := r.w.state.SetSolvability(ctx, r.plan.ID, isPerfect); err != nil {
		r.logger.Error("无法写入可解性标记", "error", err)
	}

	if !isPerfect {
		r.w.pushProgress(r.plan.ID, "警告：无法为所有班次找到可用的日期，排班需求无法完全满足", r.logger)
	}
}

func (r *redisReporter) ReportProgress(line string) {
	r.w.pushProgress(r.plan.ID, line, r.logger)
}

func (r *redisReporter) WriteSolution(solution *scheduler.Solution) {
	r.mu.Lock()
	isPerfect := r.isPerfect
	r.mu.Unlock()

	result := newRosterResult(r.plan.ID, solution, r.employeeIDs, isPerfect)
	if err := r.w.store.InsertRosterResult(result); err != nil {
		r.setErr(fmt.Errorf("无法保存排班结果: %w", err))
		return
	}
	r.w.pushProgress(r.plan.ID, fmt.Sprintf("排班结果已保存，代价为 %g", result.Cost), r.logger)

	// 邮件发送失败不影响排班结果
	requester, err := r.w.store.GetEmployeeByID(r.job.RequestedBy)
	if err != nil {
		r.logger.Error("无法获取排班任务发起者", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.w.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := r.w.publisher.PublishJSON(ctx, r.w.cfg.RabbitMQ.EmailQueue, newRosterFinishedMail(requester, r.plan, result)); err != nil {
		r.logger.Error("无法发送排班完成邮件", "error", err)
	}
}

func (r *redisReporter) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *redisReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func newRosterResult(planID int64, solution *scheduler.Solution, employeeIDs []int64, isPerfect bool) *domain.RosterResult {
	return &domain.RosterResult{
		RosterPlanID: planID,
		Cost:         solution.Cost(),
		IsPerfect:    isPerfect,
		Days:         scheduler.ToRosterDays(solution, employeeIDs),
	}
}

func newRosterFinishedMail(requester *domain.Employee, plan *domain.RosterPlan, result *domain.RosterResult) domain.MailMessage {
	return domain.MailMessage{
		Type: domain.MailTypeRosterFinished,
		To:   requester.Email,
		Data: domain.RosterFinishedMailData{
			FullName:  requester.FullName,
			PlanName:  plan.Name,
			Cost:      result.Cost,
			IsPerfect: result.IsPerfect,
		},
	}
}
