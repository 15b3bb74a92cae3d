package engine

import (
	"sync"
	"time"

	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// EventPayload carries the optional fields a feeder learned alongside a
// status. Zero values mean the feeder did not observe the field.
type EventPayload struct {
	Receipt     string
	Amount      float64
	PhoneNumber string
	Timestamp   string
	Message     string
}

// Reconciler owns the session's transaction and applies the first
// terminal status delivered by either feeder. Every commit runs under
// one mutex, so the already-terminal check and the write are atomic:
// whichever feeder reaches Commit first while the handle is active
// wins, and everything after that is a no-op.
type Reconciler struct {
	registry *Registry
	sink     Sink

	mu sync.Mutex
	tx models.Transaction
}

func NewReconciler(registry *Registry, sink Sink) *Reconciler {
	if sink == nil {
		sink = SinkFunc(func(models.Transaction) {})
	}
	return &Reconciler{registry: registry, sink: sink}
}

// Begin seeds the reconciler with a freshly initiated transaction and
// claims the active slot. It fails while another tip is still in
// flight.
func (r *Reconciler) Begin(tx models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.registry.Activate(tx.ID) {
		return ErrTipInFlight
	}
	r.tx = tx
	return nil
}

// Resolve records an already-terminal transaction (the test-mode short
// circuit) and presents it without touching the active slot.
func (r *Reconciler) Resolve(tx models.Transaction) {
	r.mu.Lock()
	r.tx = tx
	r.mu.Unlock()
	r.sink.Present(tx)
}

// Commit applies one status event from either feeder and reports
// whether it mutated the transaction. Events for a foreign id are
// dropped, as is anything arriving after a terminal commit. A pending
// status only refreshes transient display fields. The first terminal
// status is written once, releases the handle and hands the final
// transaction to the sink.
func (r *Reconciler) Commit(id models.TransactionID, status models.Status, payload EventPayload) bool {
	r.mu.Lock()
	if !r.registry.Matches(id) {
		r.mu.Unlock()
		return false
	}
	if r.tx.Status.IsTerminal() {
		r.mu.Unlock()
		return false
	}

	if status == models.StatusPending {
		r.refreshDisplay(payload)
		r.tx.Status = models.StatusPending
		r.mu.Unlock()
		return true
	}

	r.refreshDisplay(payload)
	r.tx.Status = status
	if status == models.StatusCompleted {
		if payload.Receipt != "" {
			r.tx.MpesaReceipt = payload.Receipt
		}
	} else {
		// Receipt references only exist on completed transactions.
		r.tx.MpesaReceipt = ""
		r.tx.FailureReason = payload.Message
	}
	r.tx.ResolvedAt = resolveTime(payload.Timestamp)
	final := r.tx
	r.registry.Release(id)
	r.mu.Unlock()

	r.sink.Present(final)
	return true
}

// Snapshot returns a copy of the transaction currently owned by the
// reconciler. The zero Transaction means no tip was ever initiated.
func (r *Reconciler) Snapshot() models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tx
}

func (r *Reconciler) refreshDisplay(payload EventPayload) {
	if payload.Amount > 0 {
		r.tx.Amount = payload.Amount
	}
	if payload.PhoneNumber != "" {
		r.tx.PhoneNumber = payload.PhoneNumber
	}
}

func resolveTime(raw string) time.Time {
	if raw != "" {
		if ts, err := time.Parse(models.TimeLayout, raw); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}
