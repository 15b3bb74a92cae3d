package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimeLayout is the timestamp format used on the wire by the payments
// API and the push channel.
const TimeLayout = "2006-01-02 15:04:05"

// Status is the lifecycle state of a tip transaction.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
	StatusUnknown   Status = "unknown"
)

// IsTerminal reports whether no further status event may mutate the
// transaction.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimeout, StatusUnknown:
		return true
	}
	return false
}

// ParseStatus maps a remote status string onto a status the engine
// understands. Anything unrecognized becomes StatusUnknown so it still
// resolves terminally instead of being silently dropped.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusInitiated, StatusPending, StatusCompleted, StatusFailed, StatusTimeout:
		return Status(raw)
	}
	return StatusUnknown
}

// TransactionID is the opaque identifier assigned by the initiation
// response. Some deployments of the payments API serialize it as a JSON
// number and others as a string, so both are accepted on decode.
type TransactionID string

func (id *TransactionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = TransactionID(n.String())
	return nil
}

// Transaction is the unit of work tracked by the reconciliation engine:
// one tip from one payer session, from submission to a terminal status.
type Transaction struct {
	ID            TransactionID `json:"id"`
	CreatorID     string        `json:"creator_id"`
	Amount        float64       `json:"amount"`
	PhoneNumber   string        `json:"phone_number"`
	TipperName    string        `json:"tipper_name"`
	Message       string        `json:"message"`
	Status        Status        `json:"status"`
	MpesaReceipt  string        `json:"mpesa_receipt,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ResolvedAt    time.Time     `json:"resolved_at,omitzero"`
}

// Resolved reports whether the transaction has reached a terminal
// status.
func (t Transaction) Resolved() bool {
	return t.Status.IsTerminal()
}
