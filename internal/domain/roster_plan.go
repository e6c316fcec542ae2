package domain

import "time"

// 日期均为月内的第几天，从 1 开始
type RosterPlan struct {
	ID                       int64     `json:"id"`
	Name                     string    `json:"name"`
	Description              string    `json:"description"`
	Year                     int32     `json:"year"`
	Month                    int32     `json:"month"`
	FreeDays                 []int32   `json:"freeDays"`
	SingleShiftForbiddenDays []int32   `json:"singleShiftForbiddenDays"`
	CreatedAt                time.Time `json:"createdAt"`
	Version                  int32     `json:"-"`
}

// LengthOfMonth 返回排班计划所在月份的天数
func (p *RosterPlan) LengthOfMonth() int {
	firstDay := time.Date(int(p.Year), time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return firstDay.AddDate(0, 1, -1).Day()
}

type RosterEntry struct {
	ID                              int64    `json:"id"`
	RosterPlanID                    int64    `json:"rosterPlanID"`
	EmployeeID                      int64    `json:"employeeID"`
	DaysToWorkTotal                 float64  `json:"daysToWorkTotal"`
	DaysToWorkAtFreeDay             float64  `json:"daysToWorkAtFreeDay"`
	MaxLengthOfShift                float64  `json:"maxLengthOfShift"`    // 为 0 时使用默认值
	WishedLengthOfShift             float64  `json:"wishedLengthOfShift"` // 为 0 时表示没有节奏偏好
	AdditionalFreeDaysBetweenShifts *float64 `json:"additionalFreeDaysBetweenShifts"`
	UnavailableDays                 []int32  `json:"unavailableDays"`
	FixedDays                       []int32  `json:"fixedDays"`
}
