package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
)

// 锁不存在或者仍属于同一个任务时才续期
var refreshLockScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false or current == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

// 只删除属于同一个任务的锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunState 在 Redis 中保存排班任务的锁、进度、可解性和停止信号
type RedisRunState struct {
	rdb *redis.Client
	cfg *config.Config
}

var _ RunState = (*RedisRunState)(nil)

func NewRunState(rdb *redis.Client, cfg *config.Config) *RedisRunState {
	return &RedisRunState{rdb: rdb, cfg: cfg}
}

func (s *RedisRunState) progressExpiration() time.Duration {
	return time.Duration(s.cfg.Redis.ProgressExpiration) * time.Second
}

// AcquireLock 用 token 抢占计划的排班锁，已被占用时返回 false
func (s *RedisRunState) AcquireLock(ctx context.Context, planID int64, token string) (bool, error) {
	return s.rdb.SetNX(ctx, LockKey(planID), token, s.cfg.RosterLockTTL()).Result()
}

// RefreshLock 在任务开始时续期排班锁，锁已被其他任务占用时返回 false
func (s *RedisRunState) RefreshLock(ctx context.Context, planID int64, token string) (bool, error) {
	n, err := refreshLockScript.Run(ctx, s.rdb, []string{LockKey(planID)}, token, s.cfg.RosterLockTTL().Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisRunState) ReleaseLock(ctx context.Context, planID int64, token string) error {
	return releaseLockScript.Run(ctx, s.rdb, []string{LockKey(planID)}, token).Err()
}

func (s *RedisRunState) IsRunning(ctx context.Context, planID int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, LockKey(planID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ResetRun 清除上一次排班留下的进度、可解性和停止标记
func (s *RedisRunState) ResetRun(ctx context.Context, planID int64) error {
	return s.rdb.Del(ctx, ProgressKey(planID), SolvabilityKey(planID), StopKey(planID)).Err()
}

// RequestStop 先写入停止标记再广播，还在排队的任务开始时也能看到
func (s *RedisRunState) RequestStop(ctx context.Context, planID int64) error {
	if err := s.rdb.Set(ctx, StopKey(planID), "1", s.progressExpiration()).Err(); err != nil {
		return err
	}
	return s.rdb.Publish(ctx, StopChannel(planID), "stop").Err()
}

func (s *RedisRunState) StopRequested(ctx context.Context, planID int64) (bool, error) {
	n, err := s.rdb.Exists(ctx, StopKey(planID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SubscribeStop 订阅停止信号，返回的通道在 unsubscribe 之后关闭
func (s *RedisRunState) SubscribeStop(ctx context.Context, planID int64) (<-chan struct{}, func() error, error) {
	pubsub := s.rdb.Subscribe(ctx, StopChannel(planID))
	// 先确认订阅成功，避免漏掉停止信号
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	messages := pubsub.Channel()
	stop := make(chan struct{}, 1)
	go func() {
		defer close(stop)
		for range messages {
			select {
			case stop <- struct{}{}:
			default:
			}
		}
	}()

	return stop, pubsub.Close, nil
}

func (s *RedisRunState) PushProgress(ctx context.Context, planID int64, line string) error {
	key := ProgressKey(planID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, line)
	pipe.Expire(ctx, key, s.progressExpiration())
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisRunState) SetSolvability(ctx context.Context, planID int64, isPerfect bool) error {
	value := "0"
	if isPerfect {
		value = "1"
	}
	return s.rdb.Set(ctx, SolvabilityKey(planID), value, s.progressExpiration()).Err()
}

// Solvability 返回初始匹配是否覆盖了所有班次，还没有结果时返回 nil
func (s *RedisRunState) Solvability(ctx context.Context, planID int64) (*bool, error) {
	value, err := s.rdb.Get(ctx, SolvabilityKey(planID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, err
	}
	isPerfect := value == "1"
	return &isPerfect, nil
}

func (s *RedisRunState) Progress(ctx context.Context, planID int64) ([]string, error) {
	return s.rdb.LRange(ctx, ProgressKey(planID), 0, -1).Result()
}
