package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

func (h *Handler) redisContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
}

func (h *Handler) isRosterRunning(planID int64) (bool, error) {
	ctx, cancel := h.redisContext()
	defer cancel()

	return h.runState.IsRunning(ctx, planID)
}

func (h *Handler) GetRosterResult(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	result, err := h.repository.GetRosterResultByPlanID(plan.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "暂无排班结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班结果成功", result)
}

// GenerateRosterResult 提交一个排班任务，同一个计划同时只能有一个任务
func (h *Handler) GenerateRosterResult(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Employee)

	entries, err := h.repository.GetRosterEntriesByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if len(entries) == 0 {
		h.errorResponse(w, r, "排班计划中还没有员工需求")
		return
	}
	if err := utils.ValidateRosterEntries(plan, entries, h.config.Search.DefaultMaxLengthOfShift); err != nil {
		h.badRequest(w, r, err)
		return
	}

	ctx, cancel := h.redisContext()
	defer cancel()

	// 每个任务有自己的令牌，只有持有令牌的任务才能续期和释放锁
	token := utils.GenerateRandomID(16, 16)
	ok, err := h.runState.AcquireLock(ctx, plan.ID, token)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, "排班任务正在进行中")
		return
	}

	// 清除上一次排班留下的进度和停止标记
	if err := h.runState.ResetRun(ctx, plan.ID); err != nil {
		h.releaseRosterLock(r, plan.ID, token)
		h.internalServerError(w, r, err)
		return
	}

	job := domain.RosterJob{
		RosterPlanID: plan.ID,
		RequestedBy:  myInfo.ID,
		Token:        token,
	}
	if err := h.publish(h.config.RabbitMQ.RosterQueue, job); err != nil {
		h.releaseRosterLock(r, plan.ID, token)
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班任务已提交", job)
}

func (h *Handler) releaseRosterLock(r *http.Request, planID int64, token string) {
	ctx, cancel := h.redisContext()
	defer cancel()

	if err := h.runState.ReleaseLock(ctx, planID, token); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) StopRosterGeneration(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	running, err := h.isRosterRunning(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !running {
		h.errorResponse(w, r, "没有正在进行的排班任务")
		return
	}

	ctx, cancel := h.redisContext()
	defer cancel()

	if err := h.runState.RequestStop(ctx, plan.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已发送停止信号", nil)
}

func (h *Handler) GetRosterProgress(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	running, err := h.isRosterRunning(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := h.redisContext()
	defer cancel()

	lines, err := h.runState.Progress(ctx, plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 还没有完成初始匹配时为空
	isSolvable, err := h.runState.Solvability(ctx, plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	progress := domain.RosterProgress{
		IsRunning:  running,
		IsSolvable: isSolvable,
		Lines:      lines,
	}

	h.successResponse(w, r, "获取排班进度成功", progress)
}
