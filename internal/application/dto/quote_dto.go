package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteLineRequest línea de entrada (tasa, abono o extra).
// AppliesToAllUnits nil equivale a true.
type QuoteLineRequest struct {
	ProductID           string          `json:"product_id" validate:"required"`
	UnitValue           decimal.Decimal `json:"unit_value" validate:"gte=0"`
	Quantity            int             `json:"quantity" validate:"gte=0"`
	BonificationPercent decimal.Decimal `json:"bonification_percent" validate:"gte=0,lte=100"`
	AppliesToAllUnits   *bool           `json:"applies_to_all_units,omitempty"`
}

// AllUnits valor efectivo de AppliesToAllUnits.
func (l QuoteLineRequest) AllUnits() bool {
	return l.AppliesToAllUnits == nil || *l.AppliesToAllUnits
}

// QuoteItemsRequest líneas y promoción de un presupuesto.
type QuoteItemsRequest struct {
	PromotionID   string             `json:"promotion_id,omitempty"`
	AutoPromotion bool               `json:"auto_promotion,omitempty"` // elegir promoción vigente por producto
	Rate          QuoteLineRequest   `json:"rate"`
	Subscription  QuoteLineRequest   `json:"subscription"`
	Extras        []QuoteLineRequest `json:"extras" validate:"max=50,dive"`
}

// CalculateQuoteRequest body para POST /api/quotes/calculate.
type CalculateQuoteRequest struct {
	QuoteItemsRequest
}

// CreateQuoteRequest body para POST /api/quotes.
type CreateQuoteRequest struct {
	LeadID     string    `json:"lead_id" validate:"required"`
	ValidUntil time.Time `json:"valid_until" validate:"required"`
	QuoteItemsRequest
}

// UpdateQuoteRequest body para PUT /api/quotes/:id (reemplazo completo).
type UpdateQuoteRequest struct {
	ValidUntil time.Time `json:"valid_until" validate:"required"`
	QuoteItemsRequest
}

// QuoteLineResponse línea calculada.
type QuoteLineResponse struct {
	Kind                string          `json:"kind"`
	Position            int             `json:"position"`
	ProductID           string          `json:"product_id"`
	UnitValue           decimal.Decimal `json:"unit_value"`
	Quantity            int             `json:"quantity"`
	PayableUnits        int             `json:"payable_units"`
	BonificationPercent decimal.Decimal `json:"bonification_percent"`
	PackPromotionType   string          `json:"pack_promotion_type,omitempty"`
	AppliesToAllUnits   bool            `json:"applies_to_all_units"`
	MinQuantity         int             `json:"min_quantity,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
}

// QuoteTotalsResponse totales del presupuesto.
type QuoteTotalsResponse struct {
	SubtotalRate         decimal.Decimal `json:"subtotal_rate"`
	SubtotalSubscription decimal.Decimal `json:"subtotal_subscription"`
	SubtotalExtras       decimal.Decimal `json:"subtotal_extras"`
	Total                decimal.Decimal `json:"total"`
}

// CalculateQuoteResponse vista previa sin persistir.
type CalculateQuoteResponse struct {
	PromotionID string              `json:"promotion_id,omitempty"`
	Lines       []QuoteLineResponse `json:"lines"`
	Totals      QuoteTotalsResponse `json:"totals"`
}

// QuoteResponse presupuesto persistido.
type QuoteResponse struct {
	ID          string              `json:"id"`
	LeadID      string              `json:"lead_id"`
	OwnerID     string              `json:"owner_id"`
	PromotionID string              `json:"promotion_id,omitempty"`
	State       string              `json:"state"`
	ValidUntil  time.Time           `json:"valid_until"`
	Lines       []QuoteLineResponse `json:"lines"`
	Totals      QuoteTotalsResponse `json:"totals"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
