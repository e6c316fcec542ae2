package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
)

func TestKeysArePerPlan(t *testing.T) {
	assert.Equal(t, "roster_lock_7", LockKey(7))
	assert.Equal(t, "roster_progress_7", ProgressKey(7))
	assert.Equal(t, "roster_solvability_7", SolvabilityKey(7))
	assert.Equal(t, "roster_stop_7", StopChannel(7))
	assert.Equal(t, "roster_stop_requested_7", StopKey(7))
	assert.NotEqual(t, LockKey(7), LockKey(8))
}

func TestNewRosterResult(t *testing.T) {
	plan := &domain.RosterPlan{ID: 3, Name: "2025 年 2 月值班表", Year: 2025, Month: 2}
	entries := []*domain.RosterEntry{
		{EmployeeID: 20, DaysToWorkTotal: 14},
		{EmployeeID: 10, DaysToWorkTotal: 14},
	}
	input, employeeIDs, err := scheduler.NewInputFromPlan(plan, entries, scheduler.DefaultMaxLengthOfShift)
	require.NoError(t, err)

	params := scheduler.DefaultParameters()
	matching := scheduler.NewMatcher(input, params).Match()
	solution := scheduler.NewSolution(scheduler.NewCostModel(input, params), matching.Assignment, params.RetriesPerSolution)

	result := newRosterResult(plan.ID, solution, employeeIDs, matching.IsPerfect)

	assert.Equal(t, int64(3), result.RosterPlanID)
	assert.Equal(t, solution.Cost(), result.Cost)
	assert.True(t, result.IsPerfect)
	require.Len(t, result.Days, 28)

	counts := make(map[int64]int)
	for i, day := range result.Days {
		assert.Equal(t, int32(i+1), day.Day)
		require.NotNil(t, day.EmployeeID)
		counts[*day.EmployeeID]++
	}
	assert.Equal(t, map[int64]int{10: 14, 20: 14}, counts)
}

func TestNewRosterFinishedMail(t *testing.T) {
	requester := &domain.Employee{FullName: "王伟", Email: "wangwei@example.com"}
	plan := &domain.RosterPlan{Name: "三月值班表"}
	result := &domain.RosterResult{Cost: 300, IsPerfect: false}

	msg := newRosterFinishedMail(requester, plan, result)

	assert.Equal(t, domain.MailTypeRosterFinished, msg.Type)
	assert.Equal(t, "wangwei@example.com", msg.To)
	assert.Equal(t, domain.RosterFinishedMailData{
		FullName:  "王伟",
		PlanName:  "三月值班表",
		Cost:      300,
		IsPerfect: false,
	}, msg.Data)
}
