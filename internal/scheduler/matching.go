package scheduler

import "math"

const (
	noEdge        = -1
	forbiddenCost = int64(1) << 40
	infinity      = math.MaxInt64 / 4
)

// Matching 是初始匹配的结果
type Matching struct {
	Assignment []int // day -> employee
	IsPerfect  bool  // 所有班次都匹配到了某一天
	Weight     int64 // 匹配的总权重
}

// Matcher 在 (员工, 班次) 与日期构成的二分图上求最大权匹配，作为禁忌搜索的初始解
type Matcher struct {
	input  *Input
	params Parameters
}

func NewMatcher(input *Input, params Parameters) *Matcher {
	return &Matcher{input: input, params: params}
}

type shiftSlot struct {
	employee int
	index    int
}

func (m *Matcher) Match() *Matching {
	days := m.input.LengthOfMonth()
	slots := m.slots()

	// 邻接表：weights[slot][day]，noEdge 表示不存在这条边
	weights := make([][]int64, len(slots))
	for i, slot := range slots {
		weights[i] = make([]int64, days)
		for day := 0; day < days; day++ {
			weights[i][day] = m.edgeWeight(slot, day)
		}
	}

	// 每个班次额外拥有一个权重为 0 的虚拟日期，匹配到虚拟日期即表示未匹配
	rowToCol := hungarian(len(slots), days+len(slots), func(i, j int) int64 {
		if j >= days {
			return 0
		}
		if weights[i][j] == noEdge {
			return forbiddenCost
		}
		return -weights[i][j]
	})

	result := &Matching{
		Assignment: make([]int, days),
		IsPerfect:  true,
	}
	for day := range result.Assignment {
		result.Assignment[day] = NoEmployee
	}

	for i, col := range rowToCol {
		if col >= days {
			result.IsPerfect = false
			continue
		}
		result.Assignment[col] = slots[i].employee
		result.Weight += weights[i][col]
	}

	return result
}

func (m *Matcher) slots() []shiftSlot {
	slots := make([]shiftSlot, 0)
	for employee := 0; employee < m.input.NumberOfEmployees(); employee++ {
		count := int(math.Floor(m.input.DaysToWorkTotal(employee)))
		for index := 0; index < count; index++ {
			slots = append(slots, shiftSlot{employee: employee, index: index})
		}
	}
	return slots
}

func (m *Matcher) edgeWeight(slot shiftSlot, day int) int64 {
	if !m.input.IsAvailable(slot.employee, day) {
		return noEdge
	}

	fixed := m.input.FixedEmployeeOnDay(day)
	if fixed != NoEmployee && fixed != slot.employee {
		return noEdge
	}

	weight := m.params.WeightNormalDay
	if m.input.IsFreeDay(day) && float64(slot.index) < m.input.DaysToWorkAtFreeDay(slot.employee) {
		weight = m.params.WeightFreeDay
	}
	if fixed == slot.employee {
		weight += m.params.WeightFixedDay
	}

	return weight
}

// hungarian 求解 rows x cols (rows <= cols) 的最小代价指派问题，返回每一行匹配到的列
// 基于势函数的最短增广路实现，复杂度 O(rows^2 * cols)
func hungarian(rows, cols int, cost func(i, j int) int64) []int {
	u := make([]int64, rows+1)
	v := make([]int64, cols+1)
	p := make([]int, cols+1) // p[j] 为匹配到第 j 列的行，0 表示未匹配
	way := make([]int, cols+1)
	minv := make([]int64, cols+1)
	used := make([]bool, cols+1)

	for i := 1; i <= rows; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = infinity
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := int64(infinity)
			j1 := 0

			for j := 1; j <= cols; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			for j := 0; j <= cols; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		// 沿增广路翻转匹配
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowToCol := make([]int, rows)
	for j := 1; j <= cols; j++ {
		if p[j] != 0 {
			rowToCol[p[j]-1] = j - 1
		}
	}
	return rowToCol
}
