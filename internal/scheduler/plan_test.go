package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func TestNewInputFromPlan(t *testing.T) {
	additional := 1.0
	plan := &domain.RosterPlan{Year: 2024, Month: 2, FreeDays: []int32{3, 4}, SingleShiftForbiddenDays: []int32{29}}
	entries := []*domain.RosterEntry{
		{EmployeeID: 9, DaysToWorkTotal: 10, DaysToWorkAtFreeDay: 1, FixedDays: []int32{1}},
		{EmployeeID: 3, DaysToWorkTotal: 19, MaxLengthOfShift: 4, WishedLengthOfShift: 2, AdditionalFreeDaysBetweenShifts: &additional, UnavailableDays: []int32{1, 29}},
	}

	input, employeeIDs, err := NewInputFromPlan(plan, entries, 5)
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 9}, employeeIDs)
	assert.Equal(t, 29, input.LengthOfMonth())
	assert.True(t, input.IsFreeDay(2))
	assert.True(t, input.IsFreeDay(3))
	assert.True(t, input.IsSingleShiftForbidden(28))

	assert.Equal(t, 1, input.FixedEmployeeOnDay(0))
	assert.False(t, input.IsAvailable(0, 0))
	assert.False(t, input.IsAvailable(0, 28))
	assert.Equal(t, 4.0, input.MaxLengthOfShift(0))
	assert.Equal(t, 1.0, input.AdditionalFreeDaysBetweenShifts(0))

	assert.Equal(t, 5.0, input.MaxLengthOfShift(1))
	assert.Equal(t, float64(Unset), input.AdditionalFreeDaysBetweenShifts(1))
}

func TestNewInputFromPlanRejectsInvalidEntries(t *testing.T) {
	plan := &domain.RosterPlan{Year: 2025, Month: 4}

	_, _, err := NewInputFromPlan(plan, []*domain.RosterEntry{
		{EmployeeID: 1, DaysToWorkTotal: 2},
		{EmployeeID: 1, DaysToWorkTotal: 3},
	}, DefaultMaxLengthOfShift)
	assert.Error(t, err)

	_, _, err = NewInputFromPlan(plan, []*domain.RosterEntry{
		{EmployeeID: 1, DaysToWorkTotal: 2, UnavailableDays: []int32{31}},
	}, DefaultMaxLengthOfShift)
	assert.ErrorIs(t, err, ErrDayOutOfRange)
}

func TestToRosterDays(t *testing.T) {
	input := newTestInput(t, Month{Length: 3}, EmployeeSpec{DaysToWorkTotal: 1}, EmployeeSpec{DaysToWorkTotal: 1})
	solution := newTestSolution(t, input, 1, NoEmployee, 0)

	days := ToRosterDays(solution, []int64{7, 11})

	require.Len(t, days, 3)
	assert.Equal(t, int32(1), days[0].Day)
	require.NotNil(t, days[0].EmployeeID)
	assert.Equal(t, int64(11), *days[0].EmployeeID)
	assert.Nil(t, days[1].EmployeeID)
	assert.Equal(t, int32(3), days[2].Day)
	assert.Equal(t, int64(7), *days[2].EmployeeID)
}
