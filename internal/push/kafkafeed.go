package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
)

// KafkaFeed consumes the platform's tip-events topic. Server-side
// deployments sit next to the broker that fans gateway callbacks out to
// overlay consumers, so they read the shared stream directly instead of
// holding a browser-style socket.
type KafkaFeed struct {
	reader    *kafka.Reader
	creatorID string
	events    chan Event
}

// KafkaFeedConfig captures the runtime tunables for the tip-events
// subscription.
type KafkaFeedConfig struct {
	Brokers   []string
	Topic     string
	GroupID   string
	CreatorID string
}

func NewKafkaFeed(cfg KafkaFeedConfig) *KafkaFeed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaFeed{
		reader:    reader,
		creatorID: cfg.CreatorID,
		events:    make(chan Event, socketEventBuffer),
	}
}

func (f *KafkaFeed) Events() <-chan Event {
	return f.events
}

// Run pulls messages until ctx is cancelled. Messages for other
// creators and frames that do not decode are skipped; the reconciler's
// id check is the real gate, this filter only trims volume.
func (f *KafkaFeed) Run(ctx context.Context) error {
	defer close(f.events)
	defer f.reader.Close()

	for {
		msg, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read tip event: %v", err)
		}

		ev, creatorID, ok := decodeTipEvent(msg.Value)
		if !ok {
			log.Printf("Skipping undecodable tip event at offset %d", msg.Offset)
			continue
		}
		if f.creatorID != "" && creatorID != "" && creatorID != f.creatorID {
			continue
		}

		select {
		case f.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tipEventEnvelope is the broker-side frame: the socket envelope plus
// the creator routing key that rooms provide on the websocket path.
type tipEventEnvelope struct {
	Event     string       `json:"event"`
	CreatorID string       `json:"creator_id"`
	Data      framePayload `json:"data"`
}

func decodeTipEvent(value []byte) (Event, string, bool) {
	var env tipEventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Event{}, "", false
	}
	kind := EventKind(env.Event)
	if kind != KindTipStatus && kind != KindNewTip {
		return Event{}, "", false
	}
	return env.Data.event(kind), env.CreatorID, true
}
