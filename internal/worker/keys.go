package worker

import "fmt"

// Redis 中与排班任务相关的键，API 和排班 worker 共用

// LockKey 保存正在进行的排班任务的令牌，存在即表示任务正在排队或者运行
func LockKey(planID int64) string {
	return fmt.Sprintf("roster_lock_%d", planID)
}

func ProgressKey(planID int64) string {
	return fmt.Sprintf("roster_progress_%d", planID)
}

// SolvabilityKey 保存初始匹配是否覆盖了所有班次，"1" 或 "0"
func SolvabilityKey(planID int64) string {
	return fmt.Sprintf("roster_solvability_%d", planID)
}

// StopKey 标记排班任务已被要求停止，任务还在排队时也不会丢失
func StopKey(planID int64) string {
	return fmt.Sprintf("roster_stop_requested_%d", planID)
}

// StopChannel 是停止排班任务的 Pub/Sub 频道
func StopChannel(planID int64) string {
	return fmt.Sprintf("roster_stop_%d", planID)
}
