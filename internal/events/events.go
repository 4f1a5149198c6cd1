// Package events carries recipe mutation events over the message queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cookshare/apiserver/internal/mq"
	"github.com/cookshare/apiserver/types"
)

// AttrKind is the message attribute holding the event kind, so consumers
// can route without decoding the body.
const AttrKind = "kind"

// Broker is the subset of *mq.MQ used here.
type Broker interface {
	PublishJSON(ctx context.Context, channel string, value any, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Publisher sends recipe events to a single channel.
type Publisher struct {
	broker  Broker
	channel string
}

func NewPublisher(broker Broker, channel string) *Publisher {
	return &Publisher{broker: broker, channel: channel}
}

// Publish sends event. Events of the same recipe share an ordering key.
func (p *Publisher) Publish(ctx context.Context, event types.RecipeEvent) error {
	attrs := map[string]string{
		AttrKind:           event.Kind.String(),
		mq.AttrOrderingKey: event.RecipeID,
		mq.AttrRoutingKey:  event.Kind.String(),
	}
	if _, err := p.broker.PublishJSON(ctx, p.channel, event, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}
	return nil
}

// Decode parses a message body into a RecipeEvent.
func Decode(msg mq.Message) (types.RecipeEvent, error) {
	var event types.RecipeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.RecipeEvent{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return event, nil
}

// Tail subscribes to channel and calls handle for every event until ctx is
// cancelled. Messages that do not decode are logged and acknowledged.
func Tail(ctx context.Context, broker Broker, channel string, logger *slog.Logger, handle func(types.RecipeEvent) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	return broker.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		event, err := Decode(msg)
		if err != nil {
			logger.WarnContext(ctx, "dropping malformed event", "message_id", msg.ID, "error", err)
			return nil
		}
		return handle(event)
	})
}
