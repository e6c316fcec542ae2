package scheduler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHardInput 返回一个匹配结果通常不是最优解的输入
func newHardInput(t *testing.T) *Input {
	t.Helper()

	return newTestInput(t, Month{Length: 12, FreeDays: []int{5, 6}, SingleShiftForbiddenDays: []int{2, 9}},
		EmployeeSpec{DaysToWorkTotal: 4, MaxLengthOfShift: 2, WishedLengthOfShift: 2, FixedDays: []int{0}},
		EmployeeSpec{DaysToWorkTotal: 4, DaysToWorkAtFreeDay: 1, MaxLengthOfShift: 2},
		EmployeeSpec{DaysToWorkTotal: 4, DaysToWorkAtFreeDay: 1, UnavailableDays: []int{3, 4}},
	)
}

func newInitialSolution(input *Input, params Parameters) *Solution {
	matching := NewMatcher(input, params).Match()
	return NewSolution(NewCostModel(input, params), matching.Assignment, params.RetriesPerSolution)
}

func TestTabuSearchDoesNotRegress(t *testing.T) {
	input := newHardInput(t)
	params := testParameters()
	initial := newInitialSolution(input, params)
	initialCost := initial.Cost()

	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)
	result := search.Run(context.Background(), initial)

	require.NotNil(t, result)
	assert.LessOrEqual(t, result.Cost(), initialCost)
	assert.Equal(t, NewCostModel(input, params).Evaluate(result.Assignment()), result.Cost())
}

func TestTabuSearchKeepsHardConstraints(t *testing.T) {
	input := newHardInput(t)
	params := testParameters()
	initial := newInitialSolution(input, params)

	search := NewTabuSearch(input, params, rand.New(rand.NewSource(7)), nil)
	result := search.Run(context.Background(), initial)

	assignment := result.Assignment()
	assert.Equal(t, 0, assignment[0])
	assert.NotEqual(t, 2, assignment[3])
	assert.NotEqual(t, 2, assignment[4])

	counts := make(map[int]int)
	for _, employee := range initial.Assignment() {
		counts[employee]++
	}
	for _, employee := range assignment {
		counts[employee]--
	}
	for employee, count := range counts {
		assert.Zero(t, count, "employee %d", employee)
	}
}

func TestTabuSearchStopsWhenCancelled(t *testing.T) {
	input := newHardInput(t)
	params := testParameters()
	initial := newInitialSolution(input, params)
	if initial.Cost() <= OptimalCost {
		t.Skip("初始解已经是最优解")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)
	assert.Same(t, initial, search.Run(ctx, initial))
}

func TestTabuSearchReturnsOptimalInitialSolution(t *testing.T) {
	input := newTestInput(t, Month{Length: 4},
		EmployeeSpec{DaysToWorkTotal: 2},
		EmployeeSpec{DaysToWorkTotal: 2},
	)
	params := testParameters()
	initial := newTestSolution(t, input, 0, 0, 1, 1)

	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)
	assert.Same(t, initial, search.Run(context.Background(), initial))
}

func TestTabuSearchSingleDayMonth(t *testing.T) {
	input := newTestInput(t, Month{Length: 1, SingleShiftForbiddenDays: []int{0}},
		EmployeeSpec{DaysToWorkTotal: 1, MaxLengthOfShift: 1, WishedLengthOfShift: 1},
	)
	params := testParameters()
	initial := newTestSolution(t, input, 0)

	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)
	result := search.Run(context.Background(), initial)

	assert.Equal(t, []int{0}, result.Assignment())
}

// newSingleMoveInput 返回只剩下一个合法 Move (1, 2) 的输入
// 员工 1 固定在第 0 天和第 3 天，员工 0 在第 1 天时违反禁止单日班，代价为 301，在第 2 天时代价为 1
func newSingleMoveInput(t *testing.T) *Input {
	t.Helper()

	return newTestInput(t, Month{Length: 4, SingleShiftForbiddenDays: []int{1}},
		EmployeeSpec{DaysToWorkTotal: 1},
		EmployeeSpec{DaysToWorkTotal: 2, WishedLengthOfShift: 1, FixedDays: []int{0, 3}},
	)
}

func TestSingleMoveInputCosts(t *testing.T) {
	input := newSingleMoveInput(t)

	assert.Equal(t, 301.0, newTestSolution(t, input, 1, 0, NoEmployee, 1).Cost())
	assert.Equal(t, 1.0, newTestSolution(t, input, 1, NoEmployee, 0, 1).Cost())
}

func TestBestNeighborAspiration(t *testing.T) {
	input := newSingleMoveInput(t)
	params := testParameters()
	params.NeighborhoodSampleSize = 200
	move := NewMove(1, 2)

	tests := []struct {
		name     string
		isTabu   bool
		bestCost float64
		want     bool
	}{
		{name: "not tabu", isTabu: false, bestCost: 1, want: true},
		{name: "tabu but beats best cost", isTabu: true, bestCost: 301, want: true},
		{name: "tabu and equals best cost", isTabu: true, bestCost: 1, want: false},
		{name: "tabu and worse than best cost", isTabu: true, bestCost: 0.5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)
			if tt.isTabu {
				search.tabuList.Add(move)
			}
			current := newTestSolution(t, input, 1, 0, NoEmployee, 1)

			got, ok := search.bestNeighbor(current, tt.bestCost)

			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, move, got)
			}
		})
	}
}

func TestTabuSearchRestartClearsTabuList(t *testing.T) {
	input := newSingleMoveInput(t)
	params := testParameters()

	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)
	saved := NewSolution(NewCostModel(input, params), []int{1, NoEmployee, 0, 1}, 1)
	search.history.Add(saved)
	search.tabuList.Add(NewMove(1, 2))

	restarted, ok := search.restart()
	require.True(t, ok)
	assert.NotSame(t, saved, restarted)
	assert.Equal(t, saved.Assignment(), restarted.Assignment())
	assert.Zero(t, search.tabuList.Len())

	// 唯一的历史解已经用完了重试机会
	_, ok = search.restart()
	assert.False(t, ok)
}

func TestTabuSearchStopsWhenHistoryIsExhausted(t *testing.T) {
	input := newSingleMoveInput(t)
	params := testParameters()
	params.NeighborhoodSampleSize = 200
	params.RetriesPerSolution = 3
	params.MaxIterationsWithoutImprovement = 1_000_000

	initial := NewSolution(NewCostModel(input, params), []int{1, 0, NoEmployee, 1}, params.RetriesPerSolution)
	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)

	result := search.Run(context.Background(), initial)

	// 改进一次之后只能在两个解之间来回，每次陷入僵局都消耗一次重试机会
	assert.Equal(t, 1.0, result.Cost())
	assert.Equal(t, []int{1, NoEmployee, 0, 1}, result.Assignment())
	assert.Zero(t, result.retryBudget)
	assert.Nil(t, search.history.Previous())
}

func TestTabuSearchWithoutRetriesStopsAtFirstDeadEnd(t *testing.T) {
	input := newSingleMoveInput(t)
	params := testParameters()
	params.NeighborhoodSampleSize = 200
	params.RetriesPerSolution = 0
	params.MaxIterationsWithoutImprovement = 1_000_000

	initial := NewSolution(NewCostModel(input, params), []int{1, 0, NoEmployee, 1}, params.RetriesPerSolution)
	search := NewTabuSearch(input, params, rand.New(rand.NewSource(params.Seed)), nil)

	result := search.Run(context.Background(), initial)

	assert.Equal(t, 1.0, result.Cost())
	// 没有重新出发，禁忌表中仍然是唯一的那个 Move
	assert.Equal(t, 1, search.tabuList.Len())
	assert.True(t, search.tabuList.Contains(NewMove(1, 2)))
}
