package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/streamtip/streamtip-gobackend/internal/engine"
	"github.com/streamtip/streamtip-gobackend/internal/gateway"
	"github.com/streamtip/streamtip-gobackend/internal/models"
	"github.com/streamtip/streamtip-gobackend/internal/receipt"
)

// TipHandler is the HTTP glue over the reconciliation engine: it
// decodes submissions, surfaces outcomes, and serves the session's
// current view. All real invariants live in the engine.
type TipHandler struct {
	engine *engine.Engine
	memo   *engine.MemoSink
}

func NewTipHandler(eng *engine.Engine, memo *engine.MemoSink) *TipHandler {
	return &TipHandler{engine: eng, memo: memo}
}

// SubmitTip handles POST /api/tip.
func (h *TipHandler) SubmitTip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CreatorID   string `json:"creator_id"`
		Amount      string `json:"amount"`
		PhoneNumber string `json:"phone_number"`
		TipperName  string `json:"tipper_name"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.SubmitTip(r.Context(), gateway.TipRequest{
		CreatorID:   req.CreatorID,
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		TipperName:  req.TipperName,
		Message:     req.Message,
	})
	if err != nil {
		log.Printf("Tip submission rejected: %v", err)
		writeError(w, submitStatusCode(err), userMessage(err))
		return
	}

	body := map[string]interface{}{
		"status":         "success",
		"transaction_id": result.Transaction.ID,
		"test_mode":      result.Mode == engine.SubmitResolved,
	}
	if result.Mode == engine.SubmitResolved {
		body["message"] = "Test payment successful"
		body["mpesa_receipt"] = result.Transaction.MpesaReceipt
		body["amount"] = result.Transaction.Amount
		body["phone_number"] = result.Transaction.PhoneNumber
		body["timestamp"] = result.Transaction.ResolvedAt.Format(models.TimeLayout)
	} else {
		body["message"] = "Please check your phone for the M-Pesa prompt."
	}
	writeJSON(w, http.StatusOK, body)
}

// SessionStatus handles GET /api/tip: the reconciler's current view of
// the session's transaction.
func (h *TipHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	tx := h.engine.Snapshot()
	if tx.ID == "" {
		writeError(w, http.StatusNotFound, "No tip in this session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"transaction": tx,
	})
}

// Receipt handles GET /api/tip/receipt: the rendered confirmation text
// for the last presented outcome, available once a tip completes.
func (h *TipHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	last, ok := h.memo.Last()
	if !ok || last.Status != models.StatusCompleted {
		writeError(w, http.StatusNotFound, "No completed tip in this session")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(receipt.Render(last))); err != nil {
		log.Printf("Failed to write receipt: %v", err)
	}
}

func submitStatusCode(err error) int {
	var initErr *engine.InitiationError
	switch {
	case errors.Is(err, engine.ErrInvalidAmount), errors.Is(err, engine.ErrInvalidPhoneNumber):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrTipInFlight):
		return http.StatusConflict
	case errors.As(err, &initErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func userMessage(err error) string {
	var initErr *engine.InitiationError
	switch {
	case errors.Is(err, engine.ErrInvalidPhoneNumber):
		return "Please enter a valid phone number in the format: 254XXXXXXXXX"
	case errors.Is(err, engine.ErrInvalidAmount):
		return "Please enter a valid amount (minimum 1 KES)"
	case errors.Is(err, engine.ErrTipInFlight):
		return "A tip is already being processed. Please wait for it to finish."
	case errors.As(err, &initErr):
		return initErr.Message
	}
	return "Payment initiation failed. Please try again."
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
