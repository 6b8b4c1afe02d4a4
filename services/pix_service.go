// services/pix_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/vitrinehub/vitrine_backend/models"
)

// PixService handles interactions with the PIX payout provider. Dispatching
// the actual transfer is best-effort relative to the ledger: an approved
// withdrawal stays approved even when the provider call fails, and the
// failure is logged for manual retry.
type PixService struct {
	baseURL   string
	apiKey    string
	isTesting bool
	client    *http.Client
}

// NewPixService creates a new PIX payout service instance
func NewPixService() *PixService {
	isTesting := os.Getenv("PIX_ENV") == "testing"

	baseURL := os.Getenv("PIX_API_URL")
	if baseURL == "" {
		baseURL = "https://api.sandbox.pixprovider.com/v1/"
	}

	apiKey := os.Getenv("PIX_API_KEY")
	if apiKey == "" {
		log.Printf("WARNING: PIX_API_KEY is not set; payout dispatch will fail until it is configured")
	} else {
		log.Printf("PIX payout service configured:")
		log.Printf("  Environment: %s", map[bool]string{true: "testing", false: "production"}[isTesting])
		log.Printf("  Base URL: %s", baseURL)
		log.Printf("  API key: [CONFIGURED]")
	}

	return &PixService{
		baseURL:   baseURL,
		apiKey:    apiKey,
		isTesting: isTesting,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Payout requests a PIX transfer to the given key. The reference should be
// the withdrawal request id so provider-side records can be reconciled.
func (s *PixService) Payout(pixKey string, amount float64, reference string) (*models.PixPayoutResponse, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("missing PIX credentials: set PIX_API_KEY")
	}

	payload := models.PixPayoutRequest{
		PixKey:    pixKey,
		Amount:    amount,
		Currency:  "BRL",
		Reference: reference,
	}
	return s.makeRequest(http.MethodPost, "payouts", payload)
}

// makeRequest performs an HTTP request to the PIX provider API
func (s *PixService) makeRequest(method, endpoint string, payload interface{}) (*models.PixPayoutResponse, error) {
	url := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	if s.isTesting || os.Getenv("PIX_DEBUG") == "true" {
		log.Printf("PIX API request: %s %s", method, url)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("PIX API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read PIX API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("PIX API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var payoutResp models.PixPayoutResponse
	if err := json.Unmarshal(respBody, &payoutResp); err != nil {
		return nil, fmt.Errorf("failed to decode PIX API response: %w", err)
	}
	return &payoutResp, nil
}
