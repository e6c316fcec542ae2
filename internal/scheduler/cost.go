package scheduler

import "math"

// CostModel 计算整月排班的惩罚代价
// 内部的临时状态在每次计算前都会被重置，但同一个 CostModel 不能被多个 goroutine 同时使用
type CostModel struct {
	input *Input

	penaltyForbiddenShift float64
	penaltyMandatoryBlock float64

	lastOccurrence           []int
	lengthOfLastBlock        []int
	currentConsecutiveShifts int
}

func NewCostModel(input *Input, params Parameters) *CostModel {
	n := input.NumberOfEmployees()
	return &CostModel{
		input:                 input,
		penaltyForbiddenShift: params.PenaltyForbiddenShift,
		penaltyMandatoryBlock: params.PenaltyMandatoryBlock,
		lastOccurrence:        make([]int, n),
		lengthOfLastBlock:     make([]int, n),
	}
}

func (m *CostModel) reset() {
	for i := range m.lastOccurrence {
		m.lastOccurrence[i] = NoEmployee
		m.lengthOfLastBlock[i] = 1
	}
	m.currentConsecutiveShifts = 1
}

// Evaluate 返回 assignment 的总代价，assignment[day] 为当天的员工
func (m *CostModel) Evaluate(assignment []int) float64 {
	m.reset()

	total := OptimalCost
	for day, employee := range assignment {
		if employee == NoEmployee {
			continue
		}

		if day > 0 && employee != assignment[day-1] {
			m.closeBlock(assignment[day-1])
		}

		total += m.mandatoryBlockPenalty(assignment, day)

		if m.lastOccurrence[employee] == NoEmployee {
			m.lastOccurrence[employee] = day
			continue
		}

		gap := day - m.lastOccurrence[employee]
		m.lastOccurrence[employee] = day

		if gap == 1 {
			m.currentConsecutiveShifts++
			if float64(m.currentConsecutiveShifts) > m.input.MaxLengthOfShift(employee) {
				total += m.penaltyForbiddenShift
			}
		} else if m.isForbiddenInterval(employee, gap) {
			total += m.penaltyForbiddenShift
		}

		total += m.rhythmPenalty(employee, gap)
	}

	return total
}

func (m *CostModel) closeBlock(previousEmployee int) {
	if previousEmployee != NoEmployee {
		m.lengthOfLastBlock[previousEmployee] = m.currentConsecutiveShifts
	}
	m.currentConsecutiveShifts = 1
}

func (m *CostModel) mandatoryBlockPenalty(assignment []int, day int) float64 {
	if m.input.IsSingleShiftForbidden(day) && day < len(assignment)-1 && assignment[day] != assignment[day+1] {
		return m.penaltyMandatoryBlock
	}
	return 0
}

// isForbiddenInterval 判断新的一段连班之前休息是否不足，或者连班被拆开
func (m *CostModel) isForbiddenInterval(employee, gap int) bool {
	if m.input.MaxLengthOfShift(employee) == 1 {
		return false
	}

	rest := float64(m.lengthOfLastBlock[employee])
	if additional := m.input.AdditionalFreeDaysBetweenShifts(employee); additional > 0 {
		rest += additional
	}

	return float64(gap) <= rest || gap == intervalForOneDay
}

func (m *CostModel) rhythmPenalty(employee, gap int) float64 {
	if m.input.WishedLengthOfShift(employee) <= 0 {
		return 0
	}
	if gap == 1 && float64(m.currentConsecutiveShifts) <= m.input.MaxLengthOfShift(employee) {
		return 0
	}

	return math.Abs(float64(gap) - m.input.ExpectedDaysBetweenShifts(employee))
}
