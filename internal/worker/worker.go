package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/scheduler"
)

// Store 是排班 worker 需要的持久化操作
type Store interface {
	GetRosterPlanByID(id int64) (*domain.RosterPlan, error)
	GetRosterEntriesByPlanID(planID int64) ([]*domain.RosterEntry, error)
	GetEmployeeByID(id int64) (*domain.Employee, error)
	InsertRosterResult(result *domain.RosterResult) error
}

// RunState 是排班 worker 需要的运行状态操作，由 RedisRunState 实现
type RunState interface {
	RefreshLock(ctx context.Context, planID int64, token string) (bool, error)
	ReleaseLock(ctx context.Context, planID int64, token string) error
	StopRequested(ctx context.Context, planID int64) (bool, error)
	SubscribeStop(ctx context.Context, planID int64) (<-chan struct{}, func() error, error)
	PushProgress(ctx context.Context, planID int64, line string) error
	SetSolvability(ctx context.Context, planID int64, isPerfect bool) error
}

// Publisher 向队列投递 JSON 消息
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v any) error
}

type channelPublisher struct {
	ch *amqp.Channel
}

func (p channelPublisher) PublishJSON(ctx context.Context, queue string, v any) error {
	return PublishJSON(ctx, p.ch, queue, v)
}

// Worker 从 roster_queue 中逐个取出排班任务并执行
type Worker struct {
	cfg       *config.Config
	store     Store
	state     RunState
	publisher Publisher
	ch        *amqp.Channel
	logger    *slog.Logger
}

func New(cfg *config.Config, store Store, rdb *redis.Client, ch *amqp.Channel, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:       cfg,
		store:     store,
		state:     NewRunState(rdb, cfg),
		publisher: channelPublisher{ch: ch},
		ch:        ch,
		logger:    logger,
	}
}

// Run 消费排班任务，直到 ctx 被取消或者通道被关闭
func (w *Worker) Run(ctx context.Context) error {
	// 排班任务占用大量 CPU，每次只取一个
	if err := w.ch.Qos(1, 0, false); err != nil {
		return err
	}

	q, err := DeclareQueue(w.ch, w.cfg.RabbitMQ.RosterQueue)
	if err != nil {
		return err
	}

	msgs, err := w.ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识
		false,  // 手动确认
		false,  // 是否独占队列
		false,  // 必须为 false
		false,  // 是否不等待
		nil,    // 额外参数
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("RabbitMQ 通道已关闭")
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) redisContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(w.cfg.Redis.OperationExpiration)*time.Second)
}

func (w *Worker) handle(ctx context.Context, msg amqp.Delivery) {
	job := domain.RosterJob{}
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		w.logger.Error("排班任务反序列化失败", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	logger := w.logger.With(slog.Int64("plan_id", job.RosterPlanID))
	logger.Info("收到排班任务", slog.Int64("requested_by", job.RequestedBy))

	owned, err := w.refreshLock(job)
	if err != nil {
		logger.Error("无法续期排班任务锁", "error", err)
		_ = msg.Nack(false, false)
		return
	}
	if !owned {
		// 锁在排队期间过期后，同一个计划又提交了新的任务，由新任务负责
		logger.Warn("排班任务已被新的任务取代，跳过")
		_ = msg.Ack(false)
		return
	}
	defer w.releaseLock(job, logger)

	if err := w.process(ctx, job, logger); err != nil {
		logger.Error("排班任务失败", "error", err)
		w.pushProgress(job.RosterPlanID, "排班失败: "+err.Error(), logger)
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
	logger.Info("排班任务已完成")
}

func (w *Worker) process(ctx context.Context, job domain.RosterJob, logger *slog.Logger) error {
	plan, err := w.store.GetRosterPlanByID(job.RosterPlanID)
	if err != nil {
		return fmt.Errorf("无法获取排班计划: %w", err)
	}

	entries, err := w.store.GetRosterEntriesByPlanID(plan.ID)
	if err != nil {
		return fmt.Errorf("无法获取员工需求: %w", err)
	}

	input, employeeIDs, err := scheduler.NewInputFromPlan(plan, entries, w.cfg.Search.DefaultMaxLengthOfShift)
	if err != nil {
		return err
	}

	reporter := newRedisReporter(w, plan, job, employeeIDs, logger)
	s, err := scheduler.New(input, w.cfg.SearchParameters(), reporter, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(w.cfg.Search.Timeout)*time.Second)
	defer cancel()

	stop, unsubscribe, err := w.state.SubscribeStop(ctx, plan.ID)
	if err != nil {
		return fmt.Errorf("无法订阅停止信号: %w", err)
	}
	defer func() {
		_ = unsubscribe()
	}()

	go func() {
		for range stop {
			logger.Info("收到停止信号")
			w.pushProgress(plan.ID, "收到停止信号，正在停止排班", logger)
			s.Stop()
		}
	}()

	// 订阅之后再检查停止标记，排队期间或者订阅之前发出的停止请求不会丢失
	requested, err := w.state.StopRequested(ctx, plan.ID)
	if err != nil {
		return fmt.Errorf("无法读取停止标记: %w", err)
	}
	if requested {
		logger.Info("排班任务在开始前已被停止")
		w.pushProgress(plan.ID, "排班任务在开始前已被停止，直接输出初始解", logger)
		s.Stop()
	}

	s.Schedule(ctx)

	return reporter.Err()
}

func (w *Worker) refreshLock(job domain.RosterJob) (bool, error) {
	ctx, cancel := w.redisContext()
	defer cancel()

	return w.state.RefreshLock(ctx, job.RosterPlanID, job.Token)
}

func (w *Worker) pushProgress(planID int64, line string, logger *slog.Logger) {
	ctx, cancel := w.redisContext()
	defer cancel()

	if err := w.state.PushProgress(ctx, planID, line); err != nil {
		logger.Error("无法写入排班进度", "error", err)
	}
}

func (w *Worker) releaseLock(job domain.RosterJob, logger *slog.Logger) {
	ctx, cancel := w.redisContext()
	defer cancel()

	if err := w.state.ReleaseLock(ctx, job.RosterPlanID, job.Token); err != nil {
		logger.Error("无法释放排班任务锁", "error", err)
	}
}
