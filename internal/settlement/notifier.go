package settlement

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	skafka "github.com/apuestago/bet-ledger/internal/shared/kafka"
	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

// FanoutNotifier publica cada liquidação no Kafka (consumo entre serviços)
// e no canal Redis Pub/Sub que alimenta o notify-service.
type FanoutNotifier struct {
	Writer  *skafka.Writer
	Rdb     *redis.Client
	Channel string
}

func NewFanoutNotifier(w *skafka.Writer, rdb *redis.Client, channel string) *FanoutNotifier {
	return &FanoutNotifier{Writer: w, Rdb: rdb, Channel: channel}
}

func (n *FanoutNotifier) NotifySettled(ctx context.Context, e events.WagerSettled) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if n.Writer != nil {
		if err := skafka.WriteJSON(ctx, n.Writer, e.WagerID, b); err != nil {
			return err
		}
	}
	if n.Rdb != nil {
		if err := n.Rdb.Publish(ctx, n.Channel, b).Err(); err != nil {
			return err
		}
	}
	return nil
}
