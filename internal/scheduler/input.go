package scheduler

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidMonth         = errors.New("月份天数不合法")
	ErrDayOutOfRange        = errors.New("日期超出月份范围")
	ErrInvalidQuota         = errors.New("员工的排班天数不合法")
	ErrFixedDayUnavailable  = errors.New("固定班次的员工在当天不可用")
	ErrConflictingFixedDays = errors.New("同一天存在多个固定员工")
	ErrTooManyFixedDays     = errors.New("固定班次数量超过员工的排班天数")
)

// Month 描述一个月的日期属性，日期从 0 开始计数
type Month struct {
	Length                   int
	FreeDays                 []int
	SingleShiftForbiddenDays []int
}

// EmployeeSpec 描述一个员工在本月的排班需求，日期从 0 开始计数
type EmployeeSpec struct {
	DaysToWorkTotal                 float64
	DaysToWorkAtFreeDay             float64
	MaxLengthOfShift                float64 // <= 0 时使用 DefaultMaxLengthOfShift
	WishedLengthOfShift             float64 // <= 0 表示没有节奏偏好
	AdditionalFreeDaysBetweenShifts float64 // 负数表示未设置
	UnavailableDays                 []int
	FixedDays                       []int
}

// Input 是一次排班的只读输入，构建之后可被多个搜索并发读取
type Input struct {
	lengthOfMonth int

	isFreeDay              []bool
	isSingleShiftForbidden []bool
	fixedEmployeeOnDay     []int

	daysToWorkTotal                 []float64
	daysToWorkAtFreeDay             []float64
	maxLengthOfShift                []float64
	wishedLengthOfShift             []float64
	expectedDaysBetweenShifts       []float64
	additionalFreeDaysBetweenShifts []float64

	available [][]bool // [employee][day]
}

func NewInput(month Month, employees []EmployeeSpec) (*Input, error) {
	if month.Length < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month.Length)
	}

	n := len(employees)
	in := &Input{
		lengthOfMonth:                   month.Length,
		isFreeDay:                       make([]bool, month.Length),
		isSingleShiftForbidden:          make([]bool, month.Length),
		fixedEmployeeOnDay:              make([]int, month.Length),
		daysToWorkTotal:                 make([]float64, n),
		daysToWorkAtFreeDay:             make([]float64, n),
		maxLengthOfShift:                make([]float64, n),
		wishedLengthOfShift:             make([]float64, n),
		expectedDaysBetweenShifts:       make([]float64, n),
		additionalFreeDaysBetweenShifts: make([]float64, n),
		available:                       make([][]bool, n),
	}

	for day := range in.fixedEmployeeOnDay {
		in.fixedEmployeeOnDay[day] = NoEmployee
	}

	for _, day := range month.FreeDays {
		if !in.isValidDay(day) {
			return nil, fmt.Errorf("%w: 休息日 %d", ErrDayOutOfRange, day)
		}
		in.isFreeDay[day] = true
	}
	for _, day := range month.SingleShiftForbiddenDays {
		if !in.isValidDay(day) {
			return nil, fmt.Errorf("%w: 禁止单日班的日期 %d", ErrDayOutOfRange, day)
		}
		in.isSingleShiftForbidden[day] = true
	}

	for employee, spec := range employees {
		if err := in.addEmployee(employee, spec); err != nil {
			return nil, err
		}
	}

	return in, nil
}

func (in *Input) addEmployee(employee int, spec EmployeeSpec) error {
	if spec.DaysToWorkTotal < 0 || spec.DaysToWorkAtFreeDay < 0 {
		return fmt.Errorf("%w: 员工 %d", ErrInvalidQuota, employee)
	}

	in.daysToWorkTotal[employee] = spec.DaysToWorkTotal
	in.daysToWorkAtFreeDay[employee] = spec.DaysToWorkAtFreeDay

	maxLength := spec.MaxLengthOfShift
	if maxLength <= 0 {
		maxLength = DefaultMaxLengthOfShift
	}
	maxLength = math.Min(maxLength, spec.DaysToWorkTotal)
	in.maxLengthOfShift[employee] = maxLength

	wished := math.Min(spec.WishedLengthOfShift, maxLength)
	in.wishedLengthOfShift[employee] = wished

	in.expectedDaysBetweenShifts[employee] = Unset
	if wished > 0 && spec.DaysToWorkTotal > 0 {
		in.expectedDaysBetweenShifts[employee] = float64(in.lengthOfMonth) * wished / spec.DaysToWorkTotal
	}

	in.additionalFreeDaysBetweenShifts[employee] = Unset
	if spec.AdditionalFreeDaysBetweenShifts >= 0 {
		in.additionalFreeDaysBetweenShifts[employee] = spec.AdditionalFreeDaysBetweenShifts
	}

	available := make([]bool, in.lengthOfMonth)
	for day := range available {
		available[day] = true
	}
	for _, day := range spec.UnavailableDays {
		if !in.isValidDay(day) {
			return fmt.Errorf("%w: 员工 %d 的不可用日期 %d", ErrDayOutOfRange, employee, day)
		}
		available[day] = false
	}
	in.available[employee] = available

	fixedCount := 0
	for _, day := range spec.FixedDays {
		if !in.isValidDay(day) {
			return fmt.Errorf("%w: 员工 %d 的固定日期 %d", ErrDayOutOfRange, employee, day)
		}
		if !available[day] {
			return fmt.Errorf("%w: 员工 %d 在第 %d 天", ErrFixedDayUnavailable, employee, day)
		}
		switch in.fixedEmployeeOnDay[day] {
		case employee:
			continue
		case NoEmployee:
			in.fixedEmployeeOnDay[day] = employee
			fixedCount++
		default:
			return fmt.Errorf("%w: 第 %d 天同时固定给员工 %d 和员工 %d", ErrConflictingFixedDays, day, in.fixedEmployeeOnDay[day], employee)
		}
	}
	if float64(fixedCount) > math.Floor(spec.DaysToWorkTotal) {
		return fmt.Errorf("%w: 员工 %d 有 %d 个固定班次", ErrTooManyFixedDays, employee, fixedCount)
	}

	return nil
}

func (in *Input) isValidDay(day int) bool {
	return day >= 0 && day < in.lengthOfMonth
}

func (in *Input) LengthOfMonth() int {
	return in.lengthOfMonth
}

func (in *Input) NumberOfEmployees() int {
	return len(in.daysToWorkTotal)
}

func (in *Input) IsFreeDay(day int) bool {
	return in.isFreeDay[day]
}

func (in *Input) IsSingleShiftForbidden(day int) bool {
	return in.isSingleShiftForbidden[day]
}

// FixedEmployeeOnDay 返回当天的固定员工，没有则返回 NoEmployee
func (in *Input) FixedEmployeeOnDay(day int) int {
	return in.fixedEmployeeOnDay[day]
}

// IsAvailable 判断员工当天是否可用，NoEmployee 视为总是可用
func (in *Input) IsAvailable(employee, day int) bool {
	if employee == NoEmployee {
		return true
	}
	return in.available[employee][day]
}

func (in *Input) DaysToWorkTotal(employee int) float64 {
	return in.daysToWorkTotal[employee]
}

func (in *Input) DaysToWorkAtFreeDay(employee int) float64 {
	return in.daysToWorkAtFreeDay[employee]
}

func (in *Input) MaxLengthOfShift(employee int) float64 {
	return in.maxLengthOfShift[employee]
}

func (in *Input) WishedLengthOfShift(employee int) float64 {
	return in.wishedLengthOfShift[employee]
}

func (in *Input) ExpectedDaysBetweenShifts(employee int) float64 {
	return in.expectedDaysBetweenShifts[employee]
}

func (in *Input) AdditionalFreeDaysBetweenShifts(employee int) float64 {
	return in.additionalFreeDaysBetweenShifts[employee]
}
