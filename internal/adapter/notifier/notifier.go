// Package notifier delivers liquidation notices.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domain "btc-lending-backend/internal/domain/notifier"
)

// DefaultChannel is the Redis channel liquidation notices are published on.
const DefaultChannel = "lending:liquidations"

var (
	_ domain.Notifier = (*RedisPublisher)(nil)
	_ domain.Notifier = Log{}
	_ domain.Notifier = Multi(nil)
)

type LiquidationNotice struct {
	Event   string    `json:"event"`
	OwnerID string    `json:"owner_id"`
	LoanID  string    `json:"loan_id"`
	At      time.Time `json:"at"`
}

// RedisPublisher publishes one JSON notice per liquidation. Subscribers that
// are not connected miss the notice.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, now: time.Now}
}

func (p *RedisPublisher) NotifyLiquidation(ctx context.Context, ownerID, loanID string) error {
	payload, err := json.Marshal(LiquidationNotice{
		Event:   "loan.liquidated",
		OwnerID: ownerID,
		LoanID:  loanID,
		At:      p.now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Log writes the notice to the structured log only.
type Log struct{}

func (Log) NotifyLiquidation(_ context.Context, ownerID, loanID string) error {
	slog.Info("liquidation notice", "owner_id", ownerID, "loan_id", loanID)
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []domain.Notifier

func (m Multi) NotifyLiquidation(ctx context.Context, ownerID, loanID string) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyLiquidation(ctx, ownerID, loanID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
