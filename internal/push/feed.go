package push

import (
	"context"

	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// EventKind discriminates the two notification shapes the platform
// pushes into a creator's room.
type EventKind string

const (
	// KindTipStatus is a status update addressed to one transaction.
	KindTipStatus EventKind = "tip_status"
	// KindNewTip is the broadcast emitted when any tip lands for the
	// creator. It carries no transaction id.
	KindNewTip EventKind = "new_tip"
)

// Event is one notification delivered by a Feed. Fields beyond Kind are
// populated only when the wire frame carried them.
type Event struct {
	Kind          EventKind
	TransactionID models.TransactionID
	Status        string
	MpesaReceipt  string
	Amount        float64
	PhoneNumber   string
	Timestamp     string
	TipperName    string
	Message       string
}

// Feed is a standing subscription to the push notifications for one
// creator room. Implementations deliver events until ctx is cancelled
// and close the channel returned by Events when Run returns.
type Feed interface {
	Run(ctx context.Context) error
	Events() <-chan Event
}

// framePayload is the wire shape shared by both event kinds.
type framePayload struct {
	ID           models.TransactionID `json:"id"`
	Status       string               `json:"status"`
	MpesaReceipt string               `json:"mpesa_receipt"`
	Amount       float64              `json:"amount"`
	PhoneNumber  string               `json:"phone_number"`
	Timestamp    string               `json:"timestamp"`
	TipperName   string               `json:"tipper_name"`
	Message      string               `json:"message"`
}

func (p framePayload) event(kind EventKind) Event {
	return Event{
		Kind:          kind,
		TransactionID: p.ID,
		Status:        p.Status,
		MpesaReceipt:  p.MpesaReceipt,
		Amount:        p.Amount,
		PhoneNumber:   p.PhoneNumber,
		Timestamp:     p.Timestamp,
		TipperName:    p.TipperName,
		Message:       p.Message,
	}
}
