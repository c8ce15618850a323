package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReceiptCache records which gateway message carried a kram.
type ReceiptCache interface {
	StoreSent(ctx context.Context, messageID uuid.UUID, remoteMessageID string, sentAt time.Time) error
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) StoreSent(context.Context, uuid.UUID, string, time.Time) error { return nil }
