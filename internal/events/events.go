package events

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/logging"
)

const (
	TopicUsers    = "user_events"
	TopicCart     = "cart_events"
	TopicProducts = "product_events"
	TopicOrders   = "order_events"
)

const publishTimeout = 5 * time.Second

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func New(typ string, data any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, Event) error { return nil }

func (Noop) Close() error { return nil }

// Emit publishes after the caller's write has committed. It detaches from the
// request's cancellation, bounds the call by a timeout, and only logs failures.
func Emit(ctx context.Context, p Publisher, topic, key string, ev Event) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(pubCtx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "topic", topic, "type", ev.Type, "key", key, "error", err)
	}
}
