package engine

import (
	"context"
	"testing"

	"github.com/streamtip/streamtip-gobackend/internal/models"
	"github.com/streamtip/streamtip-gobackend/internal/push"
)

// stubFeed replays a fixed sequence of push events.
type stubFeed struct {
	ch chan push.Event
}

func newStubFeed(events ...push.Event) *stubFeed {
	ch := make(chan push.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &stubFeed{ch: ch}
}

func (f *stubFeed) Run(ctx context.Context) error { return nil }
func (f *stubFeed) Events() <-chan push.Event     { return f.ch }

func TestListenerAppliesMatchingTipStatus(t *testing.T) {
	rec, registry, sink := newTestReconciler()
	if err := rec.Begin(pendingTx("T1")); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	feed := newStubFeed(push.Event{
		Kind:          push.KindTipStatus,
		TransactionID: "T1",
		Status:        "completed",
		MpesaReceipt:  "XYZ",
	})

	NewListener(feed, rec, registry).Run(context.Background())

	tx := rec.Snapshot()
	if tx.Status != models.StatusCompleted || tx.MpesaReceipt != "XYZ" {
		t.Fatalf("push completion not applied: %+v", tx)
	}
	if sink.count() != 1 {
		t.Fatalf("expected one presentation, got %d", sink.count())
	}
}

func TestListenerIgnoresForeignTipStatus(t *testing.T) {
	rec, registry, sink := newTestReconciler()
	if err := rec.Begin(pendingTx("T2")); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	feed := newStubFeed(push.Event{
		Kind:          push.KindTipStatus,
		TransactionID: "T-other",
		Status:        "completed",
		MpesaReceipt:  "NOPE",
	})

	NewListener(feed, rec, registry).Run(context.Background())

	if got := rec.Snapshot().Status; got != models.StatusPending {
		t.Fatalf("foreign event mutated transaction: %s", got)
	}
	if !registry.Matches("T2") {
		t.Fatal("expected T2 to remain active")
	}
	if sink.count() != 0 {
		t.Fatal("foreign event must not be presented")
	}
}

func TestListenerTreatsNewTipAsCompletion(t *testing.T) {
	rec, registry, _ := newTestReconciler()
	if err := rec.Begin(pendingTx("T3")); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	// new_tip broadcasts carry no transaction id.
	feed := newStubFeed(push.Event{
		Kind:         push.KindNewTip,
		MpesaReceipt: "BCAST",
		Amount:       25,
	})

	NewListener(feed, rec, registry).Run(context.Background())

	tx := rec.Snapshot()
	if tx.Status != models.StatusCompleted {
		t.Fatalf("expected completed via broadcast, got %s", tx.Status)
	}
	if tx.MpesaReceipt != "BCAST" {
		t.Fatalf("expected broadcast receipt, got %q", tx.MpesaReceipt)
	}
}

func TestListenerIgnoresNewTipWhenIdle(t *testing.T) {
	rec, registry, sink := newTestReconciler()
	feed := newStubFeed(push.Event{Kind: push.KindNewTip, MpesaReceipt: "BCAST"})

	NewListener(feed, rec, registry).Run(context.Background())

	if got := rec.Snapshot(); got.ID != "" {
		t.Fatalf("broadcast created a transaction out of thin air: %+v", got)
	}
	if sink.count() != 0 {
		t.Fatal("idle session must not present anything")
	}
}

func TestListenerKeepsPendingAlive(t *testing.T) {
	rec, registry, _ := newTestReconciler()
	if err := rec.Begin(pendingTx("T4")); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	feed := newStubFeed(push.Event{
		Kind:          push.KindTipStatus,
		TransactionID: "T4",
		Status:        "pending",
	})

	NewListener(feed, rec, registry).Run(context.Background())

	if got := rec.Snapshot().Status; got != models.StatusPending {
		t.Fatalf("expected pending, got %s", got)
	}
	if !registry.Matches("T4") {
		t.Fatal("pending push must keep the handle active")
	}
}

func TestListenerDropsDuplicateTerminalEvents(t *testing.T) {
	rec, registry, sink := newTestReconciler()
	if err := rec.Begin(pendingTx("T5")); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	feed := newStubFeed(
		push.Event{Kind: push.KindTipStatus, TransactionID: "T5", Status: "completed", MpesaReceipt: "FIRST"},
		push.Event{Kind: push.KindTipStatus, TransactionID: "T5", Status: "failed"},
		push.Event{Kind: push.KindNewTip, MpesaReceipt: "SECOND"},
	)

	NewListener(feed, rec, registry).Run(context.Background())

	tx := rec.Snapshot()
	if tx.Status != models.StatusCompleted || tx.MpesaReceipt != "FIRST" {
		t.Fatalf("duplicate events mutated the outcome: %+v", tx)
	}
	if sink.count() != 1 {
		t.Fatalf("expected one presentation, got %d", sink.count())
	}
}
