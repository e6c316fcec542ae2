package scheduler

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

// NewInputFromPlan 将排班计划及其员工条目转换为 Input
// 员工按 EmployeeID 升序编号，返回的 employeeIDs[i] 即编号为 i 的员工 ID
func NewInputFromPlan(plan *domain.RosterPlan, entries []*domain.RosterEntry, defaultMaxLengthOfShift float64) (*Input, []int64, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b *domain.RosterEntry) int {
		return cmp.Compare(a.EmployeeID, b.EmployeeID)
	})

	month := Month{
		Length:                   plan.LengthOfMonth(),
		FreeDays:                 toZeroBased(plan.FreeDays),
		SingleShiftForbiddenDays: toZeroBased(plan.SingleShiftForbiddenDays),
	}

	employeeIDs := make([]int64, len(sorted))
	specs := make([]EmployeeSpec, len(sorted))
	for i, entry := range sorted {
		if i > 0 && entry.EmployeeID == sorted[i-1].EmployeeID {
			return nil, nil, fmt.Errorf("员工 %d 在排班计划中出现了多次", entry.EmployeeID)
		}
		employeeIDs[i] = entry.EmployeeID

		maxLength := entry.MaxLengthOfShift
		if maxLength <= 0 {
			maxLength = defaultMaxLengthOfShift
		}
		additional := float64(Unset)
		if entry.AdditionalFreeDaysBetweenShifts != nil {
			additional = *entry.AdditionalFreeDaysBetweenShifts
		}

		specs[i] = EmployeeSpec{
			DaysToWorkTotal:                 entry.DaysToWorkTotal,
			DaysToWorkAtFreeDay:             entry.DaysToWorkAtFreeDay,
			MaxLengthOfShift:                maxLength,
			WishedLengthOfShift:             entry.WishedLengthOfShift,
			AdditionalFreeDaysBetweenShifts: additional,
			UnavailableDays:                 toZeroBased(entry.UnavailableDays),
			FixedDays:                       toZeroBased(entry.FixedDays),
		}
	}

	input, err := NewInput(month, specs)
	if err != nil {
		return nil, nil, err
	}
	return input, employeeIDs, nil
}

// ToRosterDays 将解转换为按日期排列的排班结果，日期从 1 开始
func ToRosterDays(solution *Solution, employeeIDs []int64) []domain.RosterResultDay {
	assignment := solution.Assignment()
	days := make([]domain.RosterResultDay, len(assignment))
	for day, employee := range assignment {
		days[day] = domain.RosterResultDay{Day: int32(day + 1)}
		if employee != NoEmployee {
			id := employeeIDs[employee]
			days[day].EmployeeID = &id
		}
	}
	return days
}

func toZeroBased(days []int32) []int {
	result := make([]int, len(days))
	for i, day := range days {
		result[i] = int(day) - 1
	}
	return result
}
