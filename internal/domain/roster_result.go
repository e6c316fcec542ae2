package domain

import "time"

type RosterResultDay struct {
	Day        int32  `json:"day"`
	EmployeeID *int64 `json:"employeeID"` // 为空时表示当天没有安排员工
}

type RosterResult struct {
	ID           int64             `json:"id"`
	RosterPlanID int64             `json:"rosterPlanID"`
	Cost         float64           `json:"cost"`
	IsPerfect    bool              `json:"isPerfect"`
	Days         []RosterResultDay `json:"days"`
	CreatedAt    time.Time         `json:"createdAt"`
	Version      int32             `json:"-"`
}

// RosterJob 是发送到 roster_queue 的排班任务
type RosterJob struct {
	RosterPlanID int64  `json:"rosterPlanID"`
	RequestedBy  int64  `json:"requestedBy"`
	Token        string `json:"token"` // 与排班锁中保存的令牌一致时才可以续期和释放锁
}

// RosterProgress 是排班任务的实时进度
type RosterProgress struct {
	IsRunning  bool     `json:"isRunning"`
	IsSolvable *bool    `json:"isSolvable"` // 还没有完成初始匹配时为空
	Lines      []string `json:"lines"`
}
