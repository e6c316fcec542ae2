package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

const (
	defaultWait = 5 * time.Second
	defaultTick = 10 * time.Millisecond
)

type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    int
	nacked   int
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeued = a.requeued || requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeState struct {
	mu            sync.Mutex
	lockOwner     map[int64]string
	stopRequested map[int64]bool
	progress      map[int64][]string
	solvability   map[int64]bool
	released      []string
	stop          chan struct{}
}

func newFakeState() *fakeState {
	return &fakeState{
		lockOwner:     make(map[int64]string),
		stopRequested: make(map[int64]bool),
		progress:      make(map[int64][]string),
		solvability:   make(map[int64]bool),
	}
}

func (s *fakeState) RefreshLock(ctx context.Context, planID int64, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.lockOwner[planID]
	if ok && owner != token {
		return false, nil
	}
	s.lockOwner[planID] = token
	return true, nil
}

func (s *fakeState) ReleaseLock(ctx context.Context, planID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockOwner[planID] == token {
		delete(s.lockOwner, planID)
	}
	s.released = append(s.released, token)
	return nil
}

func (s *fakeState) StopRequested(ctx context.Context, planID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested[planID], nil
}

func (s *fakeState) SubscribeStop(ctx context.Context, planID int64) (<-chan struct{}, func() error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stop := make(chan struct{}, 1)
	s.stop = stop
	var once sync.Once
	return stop, func() error {
		once.Do(func() { close(stop) })
		return nil
	}, nil
}

func (s *fakeState) PushProgress(ctx context.Context, planID int64, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[planID] = append(s.progress[planID], line)
	return nil
}

func (s *fakeState) SetSolvability(ctx context.Context, planID int64, isPerfect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solvability[planID] = isPerfect
	return nil
}

func (s *fakeState) stopChannel() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop
}

func (s *fakeState) lines(planID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.progress[planID]...)
}

type fakeStore struct {
	mu        sync.Mutex
	plans     map[int64]*domain.RosterPlan
	entries   map[int64][]*domain.RosterEntry
	employees map[int64]*domain.Employee
	results   []*domain.RosterResult
}

func (s *fakeStore) GetRosterPlanByID(id int64) (*domain.RosterPlan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return plan, nil
}

func (s *fakeStore) GetRosterEntriesByPlanID(planID int64) ([]*domain.RosterEntry, error) {
	return s.entries[planID], nil
}

func (s *fakeStore) GetEmployeeByID(id int64) (*domain.Employee, error) {
	employee, ok := s.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return employee, nil
}

func (s *fakeStore) InsertRosterResult(result *domain.RosterResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *fakeStore) insertedResults() []*domain.RosterResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.RosterResult(nil), s.results...)
}

type publishedMessage struct {
	queue string
	value any
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *fakePublisher) PublishJSON(ctx context.Context, queue string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{queue: queue, value: v})
	return nil
}

// newEndlessStore 返回一个代价不可能为 0 的排班计划：每天都禁止单日班，但每个员工最多只能连续值班一天
// 因此排班只会因为停止信号或者超时而结束
func newEndlessStore() *fakeStore {
	plan := &domain.RosterPlan{ID: 1, Name: "2025 年 2 月值班表", Year: 2025, Month: 2}
	for day := int32(1); day <= 28; day++ {
		plan.SingleShiftForbiddenDays = append(plan.SingleShiftForbiddenDays, day)
	}

	return &fakeStore{
		plans: map[int64]*domain.RosterPlan{1: plan},
		entries: map[int64][]*domain.RosterEntry{1: {
			{RosterPlanID: 1, EmployeeID: 10, DaysToWorkTotal: 14, MaxLengthOfShift: 1, WishedLengthOfShift: 1},
			{RosterPlanID: 1, EmployeeID: 20, DaysToWorkTotal: 14, MaxLengthOfShift: 1, WishedLengthOfShift: 1},
		}},
		employees: map[int64]*domain.Employee{
			1: {ID: 1, FullName: "排班员", Email: "planner@example.com", Role: domain.RolePlanner},
		},
	}
}

func newTestWorker(store Store, state RunState, publisher Publisher) *Worker {
	cfg := &config.Config{}
	cfg.Search.Workers = 2
	cfg.Search.TabuListLength = 15
	cfg.Search.SolutionListLength = 20
	cfg.Search.NeighborhoodSampleSize = 20
	cfg.Search.MaxIterationsWithoutImprovement = 1_000_000_000
	cfg.Search.RetriesPerSolution = 1_000_000
	cfg.Search.PenaltyForbiddenShift = 10000
	cfg.Search.PenaltyMandatoryBlock = 300
	cfg.Search.WeightNormalDay = 1
	cfg.Search.WeightFreeDay = 32
	cfg.Search.WeightFixedDay = 1000
	cfg.Search.DefaultMaxLengthOfShift = 31
	cfg.Search.Timeout = 60
	cfg.Search.Seed = 42
	cfg.Redis.OperationExpiration = 5
	cfg.RabbitMQ.PublishTimeout = 5
	cfg.RabbitMQ.EmailQueue = "email_queue"

	return &Worker{
		cfg:       cfg,
		store:     store,
		state:     state,
		publisher: publisher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newDelivery(t *testing.T, ack *fakeAcknowledger, job domain.RosterJob) amqp.Delivery {
	t.Helper()

	body, err := json.Marshal(job)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

// handleAsync 在后台处理任务，返回的通道在处理结束时关闭
func handleAsync(w *Worker, msg amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.handle(context.Background(), msg)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(defaultWait):
		t.Fatal("排班任务没有按时结束")
	}
}

func TestHandleRejectsMalformedJob(t *testing.T) {
	state := newFakeState()
	w := newTestWorker(newEndlessStore(), state, &fakePublisher{})
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Zero(t, ack.acked)
	assert.Empty(t, state.released)
}

func TestHandleReportsInvalidInput(t *testing.T) {
	store := newEndlessStore()
	store.entries[1][0].UnavailableDays = []int32{3}
	store.entries[1][0].FixedDays = []int32{3}

	state := newFakeState()
	state.lockOwner[1] = "job-1"
	w := newTestWorker(store, state, &fakePublisher{})
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), newDelivery(t, ack, domain.RosterJob{RosterPlanID: 1, RequestedBy: 1, Token: "job-1"}))

	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Zero(t, ack.acked)

	lines := state.lines(1)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "排班失败: "), lines[0])

	assert.NotContains(t, state.lockOwner, int64(1))
	assert.Equal(t, []string{"job-1"}, state.released)
	assert.Empty(t, store.insertedResults())
}

func TestHandleSkipsSupersededJob(t *testing.T) {
	store := newEndlessStore()
	state := newFakeState()
	state.lockOwner[1] = "newer-job"
	w := newTestWorker(store, state, &fakePublisher{})
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), newDelivery(t, ack, domain.RosterJob{RosterPlanID: 1, RequestedBy: 1, Token: "older-job"}))

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
	// 新任务的锁不能被旧任务释放
	assert.Equal(t, "newer-job", state.lockOwner[1])
	assert.Empty(t, state.released)
	assert.Empty(t, store.insertedResults())
}

func TestHandleHonoursStopRequestedWhileQueued(t *testing.T) {
	store := newEndlessStore()
	state := newFakeState()
	state.lockOwner[1] = "job-1"
	state.stopRequested[1] = true
	publisher := &fakePublisher{}
	w := newTestWorker(store, state, publisher)
	ack := &fakeAcknowledger{}

	done := handleAsync(w, newDelivery(t, ack, domain.RosterJob{RosterPlanID: 1, RequestedBy: 1, Token: "job-1"}))
	waitDone(t, done)

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
	assert.Contains(t, state.lines(1), "排班任务在开始前已被停止，直接输出初始解")
	assert.True(t, state.solvability[1])

	results := store.insertedResults()
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].RosterPlanID)
	assert.Len(t, results[0].Days, 28)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "email_queue", publisher.messages[0].queue)
	mail, ok := publisher.messages[0].value.(domain.MailMessage)
	require.True(t, ok)
	assert.Equal(t, "planner@example.com", mail.To)

	assert.NotContains(t, state.lockOwner, int64(1))
	assert.Equal(t, []string{"job-1"}, state.released)
}

func TestHandleStopsOnSignal(t *testing.T) {
	store := newEndlessStore()
	state := newFakeState()
	w := newTestWorker(store, state, &fakePublisher{})
	ack := &fakeAcknowledger{}

	done := handleAsync(w, newDelivery(t, ack, domain.RosterJob{RosterPlanID: 1, RequestedBy: 1, Token: "job-1"}))

	require.Eventually(t, func() bool {
		return state.stopChannel() != nil
	}, defaultWait, defaultTick)
	state.stopChannel() <- struct{}{}
	waitDone(t, done)

	assert.Equal(t, 1, ack.acked)
	assert.Contains(t, state.lines(1), "收到停止信号，正在停止排班")
	assert.Len(t, store.insertedResults(), 1)
	assert.Equal(t, []string{"job-1"}, state.released)
}
