package storage

import (
	"context"

	"github.com/bark-labs/push-relay/internal/model"
)

// Store abstracts the relay's persisted state: the VAPID key pair and the delivery log.
// Subscriptions are never persisted.
type Store interface {
	GetKeyPair(ctx context.Context) (*model.KeyPair, error)
	SaveKeyPair(ctx context.Context, keys *model.KeyPair) error
	AppendDeliveryLog(ctx context.Context, log *model.DeliveryLog) error
	ListDeliveryLogs(ctx context.Context) ([]*model.DeliveryLog, error)
	Close() error
}
