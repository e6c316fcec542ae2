package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

func (h *Handler) CreateRosterPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                     string  `json:"name" validate:"required"`
		Description              string  `json:"description"`
		Year                     int32   `json:"year" validate:"required,min=2000,max=2100"`
		Month                    int32   `json:"month" validate:"required,min=1,max=12"`
		FreeDays                 []int32 `json:"freeDays" validate:"dive,min=1,max=31"`
		SingleShiftForbiddenDays []int32 `json:"singleShiftForbiddenDays" validate:"dive,min=1,max=31"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	plan := &domain.RosterPlan{
		Name:                     req.Name,
		Description:              req.Description,
		Year:                     req.Year,
		Month:                    req.Month,
		FreeDays:                 nonNilDays(req.FreeDays),
		SingleShiftForbiddenDays: nonNilDays(req.SingleShiftForbiddenDays),
	}

	if err := utils.ValidateRosterPlanDays(plan); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateRosterPlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "roster_plans_name_key":
				h.errorResponse(w, r, "排班计划名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建排班计划成功", plan)
}

func (h *Handler) GetAllRosterPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repository.GetAllRosterPlans()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班计划列表成功", plans)
}

func (h *Handler) GetRosterPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	h.successResponse(w, r, "获取排班计划成功", plan)
}

func (h *Handler) UpdateRosterPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	var req struct {
		Name                     *string  `json:"name" validate:"omitempty,min=1"`
		Description              *string  `json:"description"`
		Year                     *int32   `json:"year" validate:"omitempty,min=2000,max=2100"`
		Month                    *int32   `json:"month" validate:"omitempty,min=1,max=12"`
		FreeDays                 *[]int32 `json:"freeDays" validate:"omitempty,dive,min=1,max=31"`
		SingleShiftForbiddenDays *[]int32 `json:"singleShiftForbiddenDays" validate:"omitempty,dive,min=1,max=31"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Year != nil {
		plan.Year = *req.Year
	}
	if req.Month != nil {
		plan.Month = *req.Month
	}
	if req.FreeDays != nil {
		plan.FreeDays = nonNilDays(*req.FreeDays)
	}
	if req.SingleShiftForbiddenDays != nil {
		plan.SingleShiftForbiddenDays = nonNilDays(*req.SingleShiftForbiddenDays)
	}

	if err := utils.ValidateRosterPlanDays(plan); err != nil {
		h.badRequest(w, r, err)
		return
	}

	running, err := h.isRosterRunning(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if running {
		h.errorResponse(w, r, "排班任务正在进行中，无法修改排班计划")
		return
	}

	// 修改月份或者日期之后，已有的员工需求必须仍然合法
	entries, err := h.repository.GetRosterEntriesByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidateRosterEntries(plan, entries, h.config.Search.DefaultMaxLengthOfShift); err != nil {
		h.badRequest(w, r, fmt.Errorf("修改后员工需求不再合法: %w", err))
		return
	}

	if err := h.repository.UpdateRosterPlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "roster_plans_name_key":
				h.errorResponse(w, r, "排班计划名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新排班计划失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新排班计划成功", plan)
}

func (h *Handler) DeleteRosterPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	running, err := h.isRosterRunning(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if running {
		h.errorResponse(w, r, "排班任务正在进行中，无法删除排班计划")
		return
	}

	if err := h.repository.DeleteRosterPlan(plan.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除排班计划成功", nil)
}

func nonNilDays(days []int32) []int32 {
	if days == nil {
		return make([]int32, 0)
	}
	return days
}
