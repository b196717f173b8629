package events

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/pagfox/pagfox/app/models"
)

const (
	ChannelDepositConfirmed = "events:deposit_confirmed"
	ChannelPayoutCompleted  = "events:payout_completed"
)

// Dispatcher delivers terminal-state signals to downstream consumers.
// Dispatch is fire-and-forget: the webhook pipeline never blocks on or
// fails because of a consumer.
type Dispatcher interface {
	DepositConfirmed(ctx context.Context, deposit *models.Deposit)
	PayoutCompleted(ctx context.Context, payout *models.Payout)
}

type redisDispatcher struct {
	client *redis.Client
}

// NewRedisDispatcher publishes signals as JSON on redis pub/sub channels.
func NewRedisDispatcher(client *redis.Client) Dispatcher {
	return &redisDispatcher{client: client}
}

func (d *redisDispatcher) DepositConfirmed(ctx context.Context, deposit *models.Deposit) {
	d.publish(ctx, ChannelDepositConfirmed, deposit)
}

func (d *redisDispatcher) PayoutCompleted(ctx context.Context, payout *models.Payout) {
	d.publish(ctx, ChannelPayoutCompleted, payout)
}

func (d *redisDispatcher) publish(ctx context.Context, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[Events] Failed to marshal %s payload: %v", channel, err)
		return
	}
	if err := d.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Errorf("[Events] Failed to publish on %s: %v", channel, err)
	}
}

// NopDispatcher drops all signals. Used in tests and when no consumer is
// wired.
type NopDispatcher struct{}

func (NopDispatcher) DepositConfirmed(context.Context, *models.Deposit) {}

func (NopDispatcher) PayoutCompleted(context.Context, *models.Payout) {}
