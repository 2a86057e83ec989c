package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authentiscan/identity-service/internal/core/ports"
)

// dedupTTL matches the longest OTP validity window: once a code has expired
// its dedup key no longer matters.
const dedupTTL = 24 * time.Hour

// MailDedup suppresses duplicate deliveries across worker retries, backed by
// Redis. Key format: mail:<kind>:<recipient>:<code>. The code is part of the
// key so a superseding OTP to the same recipient is never suppressed.
type MailDedup struct {
	client *redis.Client
}

func NewMailDedup(client *redis.Client) *MailDedup {
	return &MailDedup{client: client}
}

// AlreadySent reports whether this exact message has already been delivered.
func (d *MailDedup) AlreadySent(ctx context.Context, m ports.OutboundMail) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(m)).Result()
	if err != nil {
		return false, fmt.Errorf("mail dedup check: %w", err)
	}
	return n > 0, nil
}

// MarkSent records the delivery (expires after dedupTTL).
func (d *MailDedup) MarkSent(ctx context.Context, m ports.OutboundMail) error {
	return d.client.Set(ctx, d.key(m), "1", dedupTTL).Err()
}

func (d *MailDedup) key(m ports.OutboundMail) string {
	return fmt.Sprintf("mail:%s:%s:%s", m.Kind, m.To, m.Code)
}
