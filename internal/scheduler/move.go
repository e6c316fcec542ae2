package scheduler

// Move 表示交换两天的员工
// from 总是不大于 to，因此 NewMove(a, b) == NewMove(b, a)，可以直接作为 map 的键
type Move struct {
	from int
	to   int
}

func NewMove(a, b int) Move {
	if b < a {
		a, b = b, a
	}
	return Move{from: a, to: b}
}

func (m Move) From() int {
	return m.from
}

func (m Move) To() int {
	return m.to
}

// MoveValidator 判断一个 Move 在当前解上是否合法
type MoveValidator struct {
	input *Input
}

func NewMoveValidator(input *Input) *MoveValidator {
	return &MoveValidator{input: input}
}

func (v *MoveValidator) IsForbidden(s *Solution, m Move) bool {
	if m.from == m.to {
		return true
	}
	if v.isFixed(s, m.from) || v.isFixed(s, m.to) {
		return true
	}
	if v.isUnavailable(s, m) {
		return true
	}
	return v.violatesFreeDayQuota(s, m)
}

// isFixed 判断当天是否已经安排了固定员工
func (v *MoveValidator) isFixed(s *Solution, day int) bool {
	fixed := v.input.FixedEmployeeOnDay(day)
	return fixed != NoEmployee && s.EmployeeOnDay(day) == fixed
}

func (v *MoveValidator) isUnavailable(s *Solution, m Move) bool {
	employeeFrom := s.EmployeeOnDay(m.from)
	employeeTo := s.EmployeeOnDay(m.to)

	return !v.input.IsAvailable(employeeFrom, m.to) || !v.input.IsAvailable(employeeTo, m.from)
}

// violatesFreeDayQuota 判断跨越休息日和普通日的交换是否无法被任何一方的休息日配额吸收
func (v *MoveValidator) violatesFreeDayQuota(s *Solution, m Move) bool {
	isFromFree := v.input.IsFreeDay(m.from)
	isToFree := v.input.IsFreeDay(m.to)
	if isFromFree == isToFree {
		return false
	}

	gaining, losing := s.EmployeeOnDay(m.from), s.EmployeeOnDay(m.to)
	if isFromFree {
		gaining, losing = losing, gaining
	}

	canGain := gaining == NoEmployee ||
		float64(s.FreeDaysUsed(gaining)) < v.input.DaysToWorkAtFreeDay(gaining)
	canLose := losing == NoEmployee ||
		float64(s.FreeDaysUsed(losing)) > v.input.DaysToWorkAtFreeDay(losing)

	return !canGain && !canLose
}
