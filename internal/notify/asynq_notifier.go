package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Task type prefix for notification delivery tasks. The delivery worker
// consumes these from the "notifications" queue.
const taskTypePrefix = "notify:"

// TaskType returns the asynq task type for a template.
func TaskType(template string) string {
	return taskTypePrefix + template
}

// AsynqNotifier enqueues notification events as asynq tasks backed by
// Redis. Rendering and delivery happen in a separate worker process.
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(rdb *redis.Client) *AsynqNotifier {
	opt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return &AsynqNotifier{client: asynq.NewClient(opt)}
}

func (n *AsynqNotifier) Send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	task := asynq.NewTask(TaskType(event.Template), payload)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue("notifications")); err != nil {
		return fmt.Errorf("enqueue notification task: %w", err)
	}
	return nil
}

func (n *AsynqNotifier) Close() error {
	return n.client.Close()
}

// LogNotifier writes events to the process log instead of a queue. Used
// in development when no Redis-backed worker is running.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, event Event) error {
	log.Printf("notification %s tenant=%s invoice=%s", event.Template, event.TenantID, event.InvoiceID)
	return nil
}
