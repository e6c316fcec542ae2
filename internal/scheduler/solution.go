package scheduler

// Solution 是一个搜索 goroutine 私有的排班结果
// 它和它的所有副本共享同一个 CostModel，因此只能在同一个 goroutine 中计算代价
type Solution struct {
	input *Input
	model *CostModel

	assignment   []int // day -> employee
	freeDaysUsed []int // employee -> 当前占用的休息日数量

	cost      float64
	costKnown bool

	retriesPerSolution int
	retryBudget        int
}

// NewSolution 根据 assignment 创建一个解，休息日计数由 assignment 推导
func NewSolution(model *CostModel, assignment []int, retriesPerSolution int) *Solution {
	input := model.input
	freeDaysUsed := make([]int, input.NumberOfEmployees())
	for day, employee := range assignment {
		if employee != NoEmployee && input.IsFreeDay(day) {
			freeDaysUsed[employee]++
		}
	}

	return &Solution{
		input:              input,
		model:              model,
		assignment:         append([]int(nil), assignment...),
		freeDaysUsed:       freeDaysUsed,
		retriesPerSolution: retriesPerSolution,
		retryBudget:        retriesPerSolution,
	}
}

func (s *Solution) EmployeeOnDay(day int) int {
	return s.assignment[day]
}

// Assignment 返回 assignment 的副本
func (s *Solution) Assignment() []int {
	return append([]int(nil), s.assignment...)
}

// FreeDaysUsed 返回员工当前占用的休息日数量，NoEmployee 返回 NoEmployee
func (s *Solution) FreeDaysUsed(employee int) int {
	if employee == NoEmployee {
		return NoEmployee
	}
	return s.freeDaysUsed[employee]
}

func (s *Solution) Cost() float64 {
	if !s.costKnown {
		s.cost = s.model.Evaluate(s.assignment)
		s.costKnown = true
	}
	return s.cost
}

// Apply 交换两天的员工，并同步更新休息日计数，对同一个 Move 调用两次会恢复原状
func (s *Solution) Apply(m Move) {
	from, to := m.From(), m.To()
	employeeFrom, employeeTo := s.assignment[from], s.assignment[to]

	if s.input.IsFreeDay(from) != s.input.IsFreeDay(to) {
		gaining, losing := employeeFrom, employeeTo
		if s.input.IsFreeDay(from) {
			gaining, losing = employeeTo, employeeFrom
		}
		if gaining != NoEmployee {
			s.freeDaysUsed[gaining]++
		}
		if losing != NoEmployee {
			s.freeDaysUsed[losing]--
		}
	}

	s.assignment[from], s.assignment[to] = employeeTo, employeeFrom
	s.costKnown = false
}

// costWith 计算应用 m 之后的代价，计算结束后解保持不变
func (s *Solution) costWith(m Move) float64 {
	cost, known := s.cost, s.costKnown

	s.Apply(m)
	result := s.Cost()
	s.Apply(m)

	s.cost, s.costKnown = cost, known
	return result
}

// Clone 深拷贝 assignment 和休息日计数，重试次数重新计算
func (s *Solution) Clone() *Solution {
	return &Solution{
		input:              s.input,
		model:              s.model,
		assignment:         append([]int(nil), s.assignment...),
		freeDaysUsed:       append([]int(nil), s.freeDaysUsed...),
		cost:               s.cost,
		costKnown:          s.costKnown,
		retriesPerSolution: s.retriesPerSolution,
		retryBudget:        s.retriesPerSolution,
	}
}

// tryRetry 消耗一次重试机会，没有剩余机会时返回 false
func (s *Solution) tryRetry() bool {
	if s.retryBudget <= 0 {
		return false
	}
	s.retryBudget--
	return true
}
