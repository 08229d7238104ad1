// Package events records ledger notifications and fans them out to telemetry
// consumers once the state change they describe has committed.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// DefaultChannel is the Redis Pub/Sub channel notifications go to.
const DefaultChannel = "carbon:events"

// Publisher delivers committed notifications to external consumers.
type Publisher interface {
	Publish(ctx context.Context, evt domain.LedgerEvent) error
}

// Emit persists evt inside the running transaction and schedules publication
// for after commit. A rolled-back operation therefore never notifies.
func Emit(t *store.Txn, pub Publisher, evt domain.LedgerEvent, payload map[string]interface{}) error {
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		evt.Payload = datatypes.JSON(b)
	} else {
		evt.Payload = datatypes.JSON("{}")
	}
	if err := t.DB.Create(&evt).Error; err != nil {
		return err
	}
	if pub == nil {
		return nil
	}
	ctx := context.WithoutCancel(t.Context())
	t.AfterCommit(func() {
		if err := pub.Publish(ctx, evt); err != nil {
			log.Warn().Err(err).Str("event_type", evt.Type).Str("event_id", evt.EventID.String()).Msg("Ledger event publish failed")
		}
	})
	return nil
}

// RedisPublisher publishes JSON-encoded events on a Redis channel.
type RedisPublisher struct {
	Rdb     *redis.Client
	Channel string
}

func (p *RedisPublisher) Publish(ctx context.Context, evt domain.LedgerEvent) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	channel := p.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	return p.Rdb.Publish(ctx, channel, b).Err()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
}

func (r *Recorder) Publish(_ context.Context, evt domain.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []domain.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LedgerEvent, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the published events of one type.
func (r *Recorder) OfType(typ string) []domain.LedgerEvent {
	var out []domain.LedgerEvent
	for _, e := range r.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
