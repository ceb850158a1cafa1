package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/metrics"
	"meetmed/internal/models"
	"meetmed/internal/notify"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultQueueKey = "notifications:queue"
	deadLetterKey   = "notifications:deadletter"
)

// NotificationWorker delivers queued notification emails. Tasks are
// persisted first, then handed over through Redis (or an in-process
// channel when Redis is absent). Persisted tasks are also polled, so a
// task lost in transit is picked up once its lease expires.
type NotificationWorker struct {
	store         domain.NotificationRepository
	sender        notify.EmailSender
	renderer      *notify.Renderer
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotificationTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	lease         time.Duration
	batchSize     int
	now           func() time.Time
	logger        *zerolog.Logger
}

type Options struct {
	Retry        RetryPolicy
	PollInterval time.Duration
	QueueKey     string
}

// NewNotificationWorker builds a worker with sane defaults.
func NewNotificationWorker(
	store domain.NotificationRepository,
	sender notify.EmailSender,
	renderer *notify.Renderer,
	redisClient *redis.Client,
	opts Options,
	logger *zerolog.Logger,
) *NotificationWorker {
	retry := opts.Retry
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.QueueKey == "" {
		opts.QueueKey = defaultQueueKey
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotificationWorker{
		store:         store,
		sender:        sender,
		renderer:      renderer,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.NotificationTask, models.WorkerQueueSize),
		redisQueueKey: opts.QueueKey,
		deadLetterKey: deadLetterKey,
		pollInterval:  opts.PollInterval,
		lease:         time.Minute,
		batchSize:     20,
		now:           time.Now,
		logger:        logger,
	}
}

// Enqueue persists a task and schedules it via redis or the in-memory queue.
func (w *NotificationWorker) Enqueue(ctx context.Context, taskType string, appointmentID int64, recipient string, payload interface{}) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if recipient == "" {
		return errors.New("recipient is required")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	// The lease keeps the poller away while the task is in transit.
	leaseUntil := w.now().Add(w.lease)
	task := models.NotificationTask{
		TaskType:      taskType,
		AppointmentID: appointmentID,
		Recipient:     recipient,
		Payload:       string(payloadBytes),
		Status:        database.TaskStatusPending,
		NextRetryAt:   &leaseUntil,
	}
	if err := w.store.CreateNotificationTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notification task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}
	return nil
}

// Start runs the delivery loop until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notification worker started")
	defer w.logger.Info().Msg("notification worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		n, err := w.pollOnce(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending notifications")
		}
		if err != nil || n == 0 {
			w.sleep(ctx)
		}
	}
}

// pollOnce processes due persisted tasks and reports how many it handled.
func (w *NotificationWorker) pollOnce(ctx context.Context) (int, error) {
	tasks, err := w.store.GetPendingNotificationTasks(ctx, w.now(), w.batchSize)
	if err != nil {
		return 0, err
	}
	for _, t := range tasks {
		w.processTask(ctx, t)
	}
	return len(tasks), nil
}

func (w *NotificationWorker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (w *NotificationWorker) tryLocalQueue() (models.NotificationTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotificationTask{}, false
	}
}

func (w *NotificationWorker) tryRedis(ctx context.Context) (models.NotificationTask, bool) {
	if w.redis == nil {
		return models.NotificationTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.logger.Error().Err(err).Msg("redis BRPOP failed")
		}
		return models.NotificationTask{}, false
	}
	if len(res) != 2 {
		return models.NotificationTask{}, false
	}
	var task models.NotificationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.NotificationTask{}, false
	}
	return task, true
}

func (w *NotificationWorker) processTask(ctx context.Context, task *models.NotificationTask) {
	var data notify.MessageData
	if err := json.Unmarshal([]byte(task.Payload), &data); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	msg, err := w.renderer.Render(task.TaskType, task.Recipient, data)
	if err != nil {
		w.failTask(ctx, task, err)
		return
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, database.TaskStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark completed")
	}
	metrics.IncNotification(task.TaskType, "sent")
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, task *models.NotificationTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	nextTime := w.retryPolicy.NextAttemptAt(w.now(), attempt)
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, database.TaskStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry")
	}
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", nextTime).Msg("notification delivery failed, will retry")
	metrics.IncNotification(task.TaskType, "retry")
}

func (w *NotificationWorker) failTask(ctx context.Context, task *models.NotificationTask, cause error) {
	if err := w.store.UpdateNotificationTaskStatus(ctx, task.ID, database.TaskStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
	}
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("type", task.TaskType).Msg("notification failed permanently")
	metrics.IncNotification(task.TaskType, "failed")
	w.pushDeadLetter(ctx, task)
}

func (w *NotificationWorker) pushRedis(ctx context.Context, task models.NotificationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *NotificationWorker) pushDeadLetter(ctx context.Context, task *models.NotificationTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}
