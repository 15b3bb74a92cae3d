package push

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay     = time.Second
	reconnectDelayMax  = 5 * time.Second
	reconnectBudget    = 5
	socketEventBuffer  = 16
)

// SocketFeed consumes the platform's websocket push channel, the same
// channel the web tip page listens on. Frames are JSON envelopes of the
// form {"event": "...", "data": {...}}; after connecting the feed joins
// the creator's room before anything is delivered.
type SocketFeed struct {
	url       string
	creatorID string
	events    chan Event
}

func NewSocketFeed(url, creatorID string) *SocketFeed {
	return &SocketFeed{
		url:       url,
		creatorID: creatorID,
		events:    make(chan Event, socketEventBuffer),
	}
}

func (f *SocketFeed) Events() <-chan Event {
	return f.events
}

// Run dials the socket endpoint and pumps frames into the event channel
// until ctx is cancelled or the reconnect budget is spent. Consecutive
// dial failures back off from one second up to five.
func (f *SocketFeed) Run(ctx context.Context) error {
	defer close(f.events)

	delay := reconnectDelay
	failures := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			failures++
			if failures > reconnectBudget {
				return fmt.Errorf("push channel unavailable after %d attempts: %v", reconnectBudget, err)
			}
			log.Printf("Push channel dial failed (attempt %d): %v", failures, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnectDelayMax {
				delay = reconnectDelayMax
			}
			continue
		}

		failures = 0
		delay = reconnectDelay
		if err := f.pump(ctx, conn); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Push channel closed, reconnecting: %v", err)
		}
	}
}

func (f *SocketFeed) pump(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	join := map[string]interface{}{
		"event": "join",
		"data":  map[string]string{"creator_id": f.creatorID},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to join creator room: %v", err)
	}

	// Unblocks the read loop when the session winds down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame struct {
			Event string       `json:"event"`
			Data  framePayload `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}

		kind := EventKind(frame.Event)
		if kind != KindTipStatus && kind != KindNewTip {
			// Room acks and other chatter are not ours to interpret.
			continue
		}
		select {
		case f.events <- frame.Data.event(kind):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
