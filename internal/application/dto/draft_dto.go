package dto

import (
	"encoding/json"
	"time"
)

// StartDraftRequest body para POST /api/quote-drafts.
type StartDraftRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}

// SaveDraftRequest body para PUT /api/quote-drafts/:token.
// Payload es un CreateQuoteRequest parcial; se fusiona por clave de primer nivel.
type SaveDraftRequest struct {
	Step    string          `json:"step" validate:"required,oneof=lead items review"`
	Payload json.RawMessage `json:"payload"`
}

// DraftResponse estado de un borrador.
type DraftResponse struct {
	Token     string          `json:"token"`
	LeadID    string          `json:"lead_id"`
	Step      string          `json:"step"`
	Payload   json.RawMessage `json:"payload"`
	ExpiresAt time.Time       `json:"expires_at"`
}
