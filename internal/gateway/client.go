package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamtip/streamtip-gobackend/internal/models"
)

// Client talks to the StreamTip payments API, the authoritative surface
// in front of the M-Pesa gateway. It never interprets outcomes; it only
// moves requests and decodes responses.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the payments API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// TipRequest is the body submitted to POST /payments/initiate_tip. The
// amount travels as a string because that is what the tip form sends.
type TipRequest struct {
	CreatorID   string `json:"creator_id"`
	Amount      string `json:"amount"`
	PhoneNumber string `json:"phone_number"`
	TipperName  string `json:"tipper_name"`
	Message     string `json:"message"`
}

// InitiationResponse mirrors the initiation endpoint. The receipt
// fields are only populated on the test-mode short circuit.
type InitiationResponse struct {
	Status        string               `json:"status"`
	Message       string               `json:"message"`
	TransactionID models.TransactionID `json:"transaction_id"`
	TestMode      bool                 `json:"test_mode"`
	MpesaReceipt  string               `json:"mpesa_receipt"`
	Amount        float64              `json:"amount"`
	PhoneNumber   string               `json:"phone_number"`
	Timestamp     string               `json:"timestamp"`
}

// StatusResponse mirrors GET /payments/check_status/{id}.
type StatusResponse struct {
	Status            string  `json:"status"`
	Message           string  `json:"message"`
	TransactionStatus string  `json:"transaction_status"`
	MpesaReceipt      string  `json:"mpesa_receipt"`
	Amount            float64 `json:"amount"`
	PhoneNumber       string  `json:"phone_number"`
	Timestamp         string  `json:"timestamp"`
}

// InitiateTip submits a validated tip. The payments API reports its own
// failures inside the JSON body with status "error", so a decodable
// response is returned to the caller even on non-2xx codes; an error
// means the request never produced an interpretable response.
func (c *Client) InitiateTip(ctx context.Context, tip TipRequest) (*InitiationResponse, error) {
	body, err := json.Marshal(tip)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tip request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/payments/initiate_tip", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create initiation request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initiation request failed: %v", err)
	}
	defer resp.Body.Close()

	var out InitiationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode initiation response (HTTP %d): %v", resp.StatusCode, err)
	}
	return &out, nil
}

// CheckStatus asks the payments API for the current state of one
// transaction.
func (c *Client) CheckStatus(ctx context.Context, id models.TransactionID) (*StatusResponse, error) {
	endpoint := c.baseURL + "/payments/check_status/" + url.PathEscape(string(id))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %v", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	var out StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode status response (HTTP %d): %v", resp.StatusCode, err)
	}
	return &out, nil
}
