package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/streamtip/streamtip-gobackend/internal/gateway"
	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// Gateway is the slice of the payments API the engine needs.
type Gateway interface {
	InitiateTip(ctx context.Context, tip gateway.TipRequest) (*gateway.InitiationResponse, error)
	StatusChecker
}

// SubmitMode tells the caller whether watchers were started.
type SubmitMode int

const (
	// SubmitResolved means the gateway answered in test/immediate mode
	// and the transaction is already terminal; nothing is watching.
	SubmitResolved SubmitMode = iota
	// SubmitPending means the transaction is being reconciled
	// asynchronously by the polling watcher and the push listener.
	SubmitPending
)

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Mode        SubmitMode
	Transaction models.Transaction
}

// Engine drives one payer session's tip from submission to a terminal
// outcome. It validates, initiates against the payments API, and wires
// the polling watcher for each pending transaction; the push listener
// runs session-wide and feeds the same reconciler.
type Engine struct {
	// lifecycle outlives individual requests: polling continues after
	// the submit response has been written.
	lifecycle  context.Context
	gateway    Gateway
	reconciler *Reconciler
	registry   *Registry
	watchCfg   WatchConfig
}

func NewEngine(lifecycle context.Context, gw Gateway, reconciler *Reconciler, registry *Registry, watchCfg WatchConfig) *Engine {
	if lifecycle == nil {
		lifecycle = context.Background()
	}
	return &Engine{
		lifecycle:  lifecycle,
		gateway:    gw,
		reconciler: reconciler,
		registry:   registry,
		watchCfg:   watchCfg,
	}
}

// SubmitTip validates and initiates one tip. Test-mode initiations
// resolve synchronously; real ones seed the reconciler and start the
// polling watcher for the returned transaction id. The error is one of
// the validation sentinels, ErrTipInFlight, or an *InitiationError.
func (e *Engine) SubmitTip(ctx context.Context, tip gateway.TipRequest) (*SubmitResult, error) {
	if tip.TipperName == "" {
		tip.TipperName = "Anonymous"
	}
	if err := ValidateTip(tip.Amount, tip.PhoneNumber); err != nil {
		return nil, err
	}
	if id, ok := e.registry.Active(); ok {
		return nil, fmt.Errorf("%w (transaction %s)", ErrTipInFlight, id)
	}

	resp, err := e.gateway.InitiateTip(ctx, tip)
	if err != nil {
		log.Printf("Tip initiation transport failure: %v", err)
		return nil, &InitiationError{Message: "Network error. Please check your connection and try again."}
	}
	if resp.Status != "success" {
		msg := resp.Message
		if msg == "" {
			msg = "Payment initiation failed. Please try again."
		}
		log.Printf("Tip initiation rejected by payments API: %s", msg)
		return nil, &InitiationError{Message: msg}
	}

	amount, _ := decimal.NewFromString(tip.Amount) // validated above
	tx := models.Transaction{
		ID:          resp.TransactionID,
		CreatorID:   tip.CreatorID,
		Amount:      amount.InexactFloat64(),
		PhoneNumber: tip.PhoneNumber,
		TipperName:  tip.TipperName,
		Message:     tip.Message,
		Status:      models.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if resp.TestMode {
		tx.Status = models.StatusCompleted
		tx.MpesaReceipt = resp.MpesaReceipt
		if tx.MpesaReceipt == "" {
			tx.MpesaReceipt = "TEST-" + string(tx.ID)
		}
		if resp.Amount > 0 {
			tx.Amount = resp.Amount
		}
		if resp.PhoneNumber != "" {
			tx.PhoneNumber = resp.PhoneNumber
		}
		tx.ResolvedAt = resolveTime(resp.Timestamp)
		e.reconciler.Resolve(tx)
		log.Printf("Tip %s resolved in test mode, receipt %s", tx.ID, tx.MpesaReceipt)
		return &SubmitResult{Mode: SubmitResolved, Transaction: tx}, nil
	}

	if err := e.reconciler.Begin(tx); err != nil {
		return nil, err
	}
	watcher := NewWatcher(e.gateway, e.reconciler, e.registry, e.watchCfg)
	go watcher.Run(e.lifecycle, tx.ID)
	log.Printf("Tip %s initiated for creator %s, watching for confirmation", tx.ID, tip.CreatorID)
	return &SubmitResult{Mode: SubmitPending, Transaction: tx}, nil
}

// Snapshot exposes the reconciler's current view of the session's
// transaction.
func (e *Engine) Snapshot() models.Transaction {
	return e.reconciler.Snapshot()
}
