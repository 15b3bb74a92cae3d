package engine

import (
	"context"
	"log"

	"github.com/streamtip/streamtip-gobackend/internal/models"
	"github.com/streamtip/streamtip-gobackend/internal/push"
)

// Listener drains a push feed into the reconciler. A tip_status event
// must name the active transaction exactly; a new_tip broadcast carries
// no id and is accepted for whichever transaction is currently active.
// The broadcast path is a deliberately lower-precision fallback
// inherited from the product's push contract.
type Listener struct {
	feed       push.Feed
	reconciler *Reconciler
	registry   *Registry
}

func NewListener(feed push.Feed, reconciler *Reconciler, registry *Registry) *Listener {
	return &Listener{feed: feed, reconciler: reconciler, registry: registry}
}

// Run blocks until the feed closes or ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	events := l.feed.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.handle(ev)
		}
	}
}

func (l *Listener) handle(ev push.Event) {
	switch ev.Kind {
	case push.KindTipStatus:
		if !l.registry.Matches(ev.TransactionID) {
			log.Printf("Ignoring tip_status for inactive transaction %s", ev.TransactionID)
			return
		}
		l.reconciler.Commit(ev.TransactionID, models.ParseStatus(ev.Status), payloadFromEvent(ev))
	case push.KindNewTip:
		id, ok := l.registry.Active()
		if !ok {
			return
		}
		// The broadcast confirms that a tip landed for the creator;
		// with one transaction in flight it is treated as completion.
		l.reconciler.Commit(id, models.StatusCompleted, payloadFromEvent(ev))
	}
}

func payloadFromEvent(ev push.Event) EventPayload {
	return EventPayload{
		Receipt:     ev.MpesaReceipt,
		Amount:      ev.Amount,
		PhoneNumber: ev.PhoneNumber,
		Timestamp:   ev.Timestamp,
		Message:     ev.Message,
	}
}
