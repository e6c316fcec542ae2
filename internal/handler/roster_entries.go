package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
)

func (h *Handler) GetRosterEntries(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	entries, err := h.repository.GetRosterEntriesByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工需求成功", entries)
}

type rosterEntryRequest struct {
	EmployeeID                      int64    `json:"employeeID" validate:"required"`
	DaysToWorkTotal                 float64  `json:"daysToWorkTotal" validate:"min=0"`
	DaysToWorkAtFreeDay             float64  `json:"daysToWorkAtFreeDay" validate:"min=0"`
	MaxLengthOfShift                float64  `json:"maxLengthOfShift" validate:"min=0"`
	WishedLengthOfShift             float64  `json:"wishedLengthOfShift" validate:"min=0"`
	AdditionalFreeDaysBetweenShifts *float64 `json:"additionalFreeDaysBetweenShifts" validate:"omitempty,min=0"`
	UnavailableDays                 []int32  `json:"unavailableDays" validate:"dive,min=1,max=31"`
	FixedDays                       []int32  `json:"fixedDays" validate:"dive,min=1,max=31"`
}

// ReplaceRosterEntries 用请求中的需求整体替换排班计划的员工需求
func (h *Handler) ReplaceRosterEntries(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	var req struct {
		Entries []rosterEntryRequest `json:"entries" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	entries := make([]*domain.RosterEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = &domain.RosterEntry{
			RosterPlanID:                    plan.ID,
			EmployeeID:                      e.EmployeeID,
			DaysToWorkTotal:                 e.DaysToWorkTotal,
			DaysToWorkAtFreeDay:             e.DaysToWorkAtFreeDay,
			MaxLengthOfShift:                e.MaxLengthOfShift,
			WishedLengthOfShift:             e.WishedLengthOfShift,
			AdditionalFreeDaysBetweenShifts: e.AdditionalFreeDaysBetweenShifts,
			UnavailableDays:                 nonNilDays(e.UnavailableDays),
			FixedDays:                       nonNilDays(e.FixedDays),
		}
	}

	// 在保存之前就发现互相矛盾的需求，而不是等到排班时才失败
	if err := utils.ValidateRosterEntries(plan, entries, h.config.Search.DefaultMaxLengthOfShift); err != nil {
		h.badRequest(w, r, err)
		return
	}

	running, err := h.isRosterRunning(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if running {
		h.errorResponse(w, r, "排班任务正在进行中，无法修改员工需求")
		return
	}

	if err := h.repository.ReplaceRosterEntries(plan.ID, entries); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "roster_entries_employee_id_fkey":
				h.errorResponse(w, r, "员工不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "保存员工需求成功", entries)
}
