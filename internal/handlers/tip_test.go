package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/streamtip/streamtip-gobackend/internal/engine"
	"github.com/streamtip/streamtip-gobackend/internal/gateway"
	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// newTestHandler wires a handler to an engine backed by a scripted
// payments API that always answers in test mode.
func newTestHandler(t *testing.T) *TipHandler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","transaction_id":7,"test_mode":true,"mpesa_receipt":"QWE123","amount":50,"phone_number":"254712345678","timestamp":"2025-03-01 12:00:05"}`))
	}))
	t.Cleanup(srv.Close)

	registry := engine.NewRegistry()
	memo := &engine.MemoSink{}
	reconciler := engine.NewReconciler(registry, memo)
	eng := engine.NewEngine(context.Background(), gateway.NewClient(srv.URL), reconciler, registry, engine.DefaultWatchConfig())
	return NewTipHandler(eng, memo)
}

func postTip(t *testing.T, h *TipHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/tip", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SubmitTip(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestSubmitTipTestModeResponse(t *testing.T) {
	h := newTestHandler(t)
	rec := postTip(t, h, `{"creator_id":"creator-1","amount":"50","phone_number":"254712345678"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "success" || body["test_mode"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["transaction_id"] != "7" || body["mpesa_receipt"] != "QWE123" {
		t.Fatalf("unexpected transaction fields: %v", body)
	}
	if body["message"] != "Test payment successful" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestSubmitTipRejectsInvalidAmount(t *testing.T) {
	h := newTestHandler(t)
	rec := postTip(t, h, `{"creator_id":"creator-1","amount":"0","phone_number":"254712345678"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Please enter a valid amount (minimum 1 KES)" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestSubmitTipRejectsInvalidPhone(t *testing.T) {
	h := newTestHandler(t)
	rec := postTip(t, h, `{"creator_id":"creator-1","amount":"50","phone_number":"0712345678"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Please enter a valid phone number in the format: 254XXXXXXXXX" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestSubmitTipRejectsMalformedBody(t *testing.T) {
	h := newTestHandler(t)
	rec := postTip(t, h, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionStatusEmptySession(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.SessionStatus(rec, httptest.NewRequest("GET", "/api/tip", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any tip, got %d", rec.Code)
	}
}

func TestSessionStatusAfterTestModeTip(t *testing.T) {
	h := newTestHandler(t)
	postTip(t, h, `{"creator_id":"creator-1","amount":"50","phone_number":"254712345678"}`)

	rec := httptest.NewRecorder()
	h.SessionStatus(rec, httptest.NewRequest("GET", "/api/tip", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status      string             `json:"status"`
		Transaction models.Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Transaction.Status != models.StatusCompleted || body.Transaction.MpesaReceipt != "QWE123" {
		t.Fatalf("unexpected transaction: %+v", body.Transaction)
	}
}

func TestReceiptEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Receipt(rec, httptest.NewRequest("GET", "/api/tip/receipt", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before completion, got %d", rec.Code)
	}

	postTip(t, h, `{"creator_id":"creator-1","amount":"50","phone_number":"254712345678"}`)

	rec = httptest.NewRecorder()
	h.Receipt(rec, httptest.NewRequest("GET", "/api/tip/receipt", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected a plain text receipt, got %q", ct)
	}
	text := rec.Body.String()
	if !strings.HasPrefix(text, "M-PESA\n") || !strings.Contains(text, "Transaction ID: QWE123\n") {
		t.Fatalf("unexpected receipt:\n%s", text)
	}
}
