package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"runmatch/pkg/types"
)

const (
	// eventsChannel carries every engine event.
	eventsChannel = "dispatch:events"
	// performerChannelPrefix routes offers to one performer's feed.
	performerChannelPrefix = "dispatch:performer:"
)

// RedisPublisher broadcasts events over Redis pub/sub, the change-feed
// half of the rows-plus-broadcast deployment. Offers are
// additionally published on the target performer's own channel so
// device feeds do not have to filter the firehose.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher over an existing client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev types.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, eventsChannel, raw).Err(); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}

	if ev.Type == types.EventOfferCreated {
		var oc types.OfferCreated
		if err := json.Unmarshal(ev.Data, &oc); err == nil && oc.PerformerID != "" {
			if err := p.client.Publish(ctx, performerChannelPrefix+oc.PerformerID, raw).Err(); err != nil {
				return fmt.Errorf("notify: publish to performer feed: %w", err)
			}
		}
	}
	return nil
}
