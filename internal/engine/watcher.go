package engine

import (
	"context"
	"log"
	"time"

	"github.com/streamtip/streamtip-gobackend/internal/gateway"
	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// StatusChecker is the slice of the payments API the watcher needs.
type StatusChecker interface {
	CheckStatus(ctx context.Context, id models.TransactionID) (*gateway.StatusResponse, error)
}

// WatchConfig bounds the polling feeder. Interval times MaxAttempts is
// the total observation window past which the watcher gives up.
type WatchConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultWatchConfig matches the observation window the product ships
// with: twelve checks five seconds apart, about one minute in total.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{Interval: 5 * time.Second, MaxAttempts: 12}
}

// Watcher polls the payments API for one transaction until a terminal
// status is committed or its attempt budget runs out. It is a
// supervised loop, not a self-rescheduling callback: the cancellation
// check runs before every reschedule, so a push-driven commit between
// ticks stops it cooperatively.
type Watcher struct {
	gateway    StatusChecker
	reconciler *Reconciler
	registry   *Registry
	cfg        WatchConfig
}

func NewWatcher(gw StatusChecker, reconciler *Reconciler, registry *Registry, cfg WatchConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWatchConfig().Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultWatchConfig().MaxAttempts
	}
	return &Watcher{gateway: gw, reconciler: reconciler, registry: registry, cfg: cfg}
}

// Run blocks until the watched transaction resolves, the attempt budget
// is spent, or ctx is cancelled. The first check fires immediately;
// later checks are spaced by the configured interval.
func (w *Watcher) Run(ctx context.Context, id models.TransactionID) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		if !w.registry.Matches(id) {
			// The push channel resolved the transaction between ticks.
			return
		}

		if attempt > w.cfg.MaxAttempts {
			// Local terminal decision; the server never answered with
			// anything final inside the observation window.
			log.Printf("Tip %s: poll budget exhausted after %d attempts, committing timeout", id, w.cfg.MaxAttempts)
			w.reconciler.Commit(id, models.StatusTimeout, EventPayload{
				Message: StatusMessage(models.StatusTimeout),
			})
			return
		}

		resp, err := w.gateway.CheckStatus(ctx, id)
		if err != nil {
			// Hard errors are terminal; only pending results retry.
			log.Printf("Tip %s: status check failed on attempt %d: %v", id, attempt, err)
			w.reconciler.Commit(id, models.StatusFailed, EventPayload{
				Message: "Could not check payment status.",
			})
			return
		}
		if resp.Status != "success" {
			msg := resp.Message
			if msg == "" {
				msg = "Could not check payment status."
			}
			log.Printf("Tip %s: status endpoint rejected attempt %d: %s", id, attempt, msg)
			w.reconciler.Commit(id, models.StatusFailed, EventPayload{Message: msg})
			return
		}

		status := models.ParseStatus(resp.TransactionStatus)
		payload := EventPayload{
			Receipt:     resp.MpesaReceipt,
			Amount:      resp.Amount,
			PhoneNumber: resp.PhoneNumber,
			Timestamp:   resp.Timestamp,
			Message:     resp.Message,
		}

		if status != models.StatusPending {
			w.reconciler.Commit(id, status, payload)
			return
		}

		w.reconciler.Commit(id, models.StatusPending, payload)
		if !w.registry.Matches(id) {
			// Resolved while this check was in flight.
			return
		}
		timer.Reset(w.cfg.Interval)
	}
}
