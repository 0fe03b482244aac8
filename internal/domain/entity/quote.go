package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de presupuesto (resueltos por nombre contra quote_states).
const (
	QuoteStatePending  = "Pendiente"
	QuoteStateAccepted = "Aceptado"
	QuoteStateRejected = "Rechazado"
	QuoteStateExpired  = "Vencido"
)

// Clases de línea de presupuesto.
const (
	LineKindRate         = "tasa"
	LineKindSubscription = "abono"
	LineKindExtra        = "extra"
)

// QuoteState fila del catálogo de estados de presupuesto.
type QuoteState struct {
	ID   string
	Name string
}

// Quote cabecera de un presupuesto. Los subtotales se recalculan siempre desde las líneas.
type Quote struct {
	ID                   string
	LeadID               string
	OwnerID              string
	PromotionID          string // vacío = sin promoción
	StateID              string
	ValidUntil           time.Time
	SubtotalRate         decimal.Decimal
	SubtotalSubscription decimal.Decimal
	SubtotalExtras       decimal.Decimal
	Total                decimal.Decimal
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time
}

// QuoteLine línea de presupuesto (tasa, abono o extra).
type QuoteLine struct {
	ID                  string
	QuoteID             string
	Kind                string
	Position            int
	ProductID           string
	UnitValue           decimal.Decimal
	Quantity            int
	BonificationPercent decimal.Decimal
	PackPromotionType   string // "", "2x1" o "3x2"
	AppliesToAllUnits   bool
	MinQuantity         int
	Subtotal            decimal.Decimal
}

// QuoteDraft borrador de presupuesto en curso, identificado por token.
// Payload guarda el CreateQuoteRequest serializado.
type QuoteDraft struct {
	Token     string
	ActorID   string
	LeadID    string
	Step      string
	Payload   []byte
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuoteStates catálogo completo de estados de presupuesto.
type QuoteStates []QuoteState

// IDOf id del estado con ese nombre.
func (s QuoteStates) IDOf(name string) (string, bool) {
	for _, st := range s {
		if st.Name == name {
			return st.ID, true
		}
	}
	return "", false
}

// NameOf nombre del estado con ese id (vacío si no existe).
func (s QuoteStates) NameOf(id string) string {
	for _, st := range s {
		if st.ID == id {
			return st.Name
		}
	}
	return ""
}
