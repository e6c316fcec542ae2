package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
)

func validateDays(days []int32, lengthOfMonth int, name string) error {
	for _, day := range days {
		if day < 1 || int(day) > lengthOfMonth {
			return fmt.Errorf("%s中的第 %d 天超出了当月的范围", name, day)
		}
	}

	sorted := slices.Clone(days)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(days) {
		return fmt.Errorf("%s中存在重复的日期", name)
	}

	return nil
}

func ValidateRosterPlanDays(plan *domain.RosterPlan) error {
	if plan.Month < 1 || plan.Month > 12 {
		return fmt.Errorf("月份 %d 不合法", plan.Month)
	}

	lengthOfMonth := plan.LengthOfMonth()
	if err := validateDays(plan.FreeDays, lengthOfMonth, "休息日"); err != nil {
		return err
	}
	if err := validateDays(plan.SingleShiftForbiddenDays, lengthOfMonth, "禁止单日班的日期"); err != nil {
		return err
	}

	return nil
}

// ValidateRosterEntries 检查员工需求是否与排班计划相符，并提前发现互相矛盾的固定班次
func ValidateRosterEntries(plan *domain.RosterPlan, entries []*domain.RosterEntry, defaultMaxLengthOfShift float64) error {
	lengthOfMonth := plan.LengthOfMonth()

	seen := make(map[int64]bool)
	totalDays := 0.0
	for _, entry := range entries {
		if seen[entry.EmployeeID] {
			return fmt.Errorf("员工 %d 重复出现", entry.EmployeeID)
		}
		seen[entry.EmployeeID] = true

		if entry.DaysToWorkTotal > float64(lengthOfMonth) {
			return fmt.Errorf("员工 %d 的值班天数超过了当月天数", entry.EmployeeID)
		}
		if entry.DaysToWorkAtFreeDay > entry.DaysToWorkTotal {
			return fmt.Errorf("员工 %d 的休息日值班天数不能超过总值班天数", entry.EmployeeID)
		}
		if entry.AdditionalFreeDaysBetweenShifts != nil && *entry.AdditionalFreeDaysBetweenShifts < 0 {
			return fmt.Errorf("员工 %d 的额外休息天数不能为负数", entry.EmployeeID)
		}
		if err := validateDays(entry.UnavailableDays, lengthOfMonth, "不可用日期"); err != nil {
			return fmt.Errorf("员工 %d 的%w", entry.EmployeeID, err)
		}
		if err := validateDays(entry.FixedDays, lengthOfMonth, "固定日期"); err != nil {
			return fmt.Errorf("员工 %d 的%w", entry.EmployeeID, err)
		}
		totalDays += entry.DaysToWorkTotal
	}

	if totalDays > float64(lengthOfMonth) {
		return errors.New("所有员工的值班天数之和超过了当月天数")
	}

	if _, _, err := scheduler.NewInputFromPlan(plan, entries, defaultMaxLengthOfShift); err != nil {
		return err
	}

	return nil
}
