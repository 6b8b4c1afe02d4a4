// models/pix.go
package models

// PixPayoutRequest is the payload sent to the PIX payout provider when an
// approved withdrawal is dispatched.
type PixPayoutRequest struct {
	PixKey      string  `json:"pixKey"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Reference   string  `json:"reference"`
	Description string  `json:"description,omitempty"`
}

// PixPayoutResponse is the provider's reply.
type PixPayoutResponse struct {
	Status        bool        `json:"status"`
	Code          string      `json:"code,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
	Data          interface{} `json:"data,omitempty"`
}
