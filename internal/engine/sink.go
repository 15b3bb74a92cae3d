package engine

import (
	"log"
	"sync"

	"github.com/streamtip/streamtip-gobackend/internal/models"
	"github.com/streamtip/streamtip-gobackend/internal/receipt"
)

// Sink receives the reconciler's user-visible output. The engine
// guarantees each initiated transaction is presented exactly once in a
// terminal state; what happens to it afterwards is the sink's business.
type Sink interface {
	Present(tx models.Transaction)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(models.Transaction)

func (f SinkFunc) Present(tx models.Transaction) { f(tx) }

// MultiSink fans one presentation out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Present(tx models.Transaction) {
	for _, s := range m {
		s.Present(tx)
	}
}

// StatusMessage maps a terminal status onto the line shown to the
// payer when no richer detail is available.
func StatusMessage(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return "Payment completed successfully!"
	case models.StatusFailed:
		return "Payment failed. Please try again."
	case models.StatusTimeout:
		return "Payment taking longer than expected. Please check M-Pesa or try again later."
	}
	return "Unknown payment status received. Please contact support."
}

// LogSink writes the presented outcome to the process log: the full
// receipt for a completed tip, the user-facing message otherwise.
type LogSink struct{}

func (LogSink) Present(tx models.Transaction) {
	switch tx.Status {
	case models.StatusCompleted:
		log.Printf("Tip %s completed:\n%s", tx.ID, receipt.Render(tx))
	case models.StatusFailed:
		reason := tx.FailureReason
		if reason == "" {
			reason = StatusMessage(tx.Status)
		}
		log.Printf("Tip %s failed: %s", tx.ID, reason)
	default:
		log.Printf("Tip %s resolved %s: %s", tx.ID, tx.Status, StatusMessage(tx.Status))
	}
}

// MemoSink retains the most recently presented transaction so the HTTP
// surface can serve the outcome after the session resolves.
type MemoSink struct {
	mu   sync.Mutex
	last *models.Transaction
}

func (s *MemoSink) Present(tx models.Transaction) {
	s.mu.Lock()
	s.last = &tx
	s.mu.Unlock()
}

// Last returns a copy of the last presented transaction, if any.
func (s *MemoSink) Last() (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return models.Transaction{}, false
	}
	return *s.last, true
}
