package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InvoiceLocker serializes reconciliation per invoice. The webhook and the
// success-page poll can fire for the same gateway event at the same time;
// the lock makes the check-then-create section a single-writer unit.
type InvoiceLocker interface {
	// Acquire takes the per-invoice lock, reporting false when another
	// reconciliation currently holds it.
	Acquire(ctx context.Context, invoiceID uuid.UUID, ttl time.Duration) (bool, error)

	// Release frees the lock.
	Release(ctx context.Context, invoiceID uuid.UUID) error
}

type redisInvoiceLocker struct {
	client *redis.Client
}

func NewRedisInvoiceLocker(client *redis.Client) InvoiceLocker {
	return &redisInvoiceLocker{client: client}
}

func lockKey(invoiceID uuid.UUID) string {
	return fmt.Sprintf("reconcile:invoice:%s", invoiceID)
}

func (l *redisInvoiceLocker) Acquire(ctx context.Context, invoiceID uuid.UUID, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockKey(invoiceID), 1, ttl).Result()
}

func (l *redisInvoiceLocker) Release(ctx context.Context, invoiceID uuid.UUID) error {
	return l.client.Del(ctx, lockKey(invoiceID)).Err()
}
