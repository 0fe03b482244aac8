package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de promoción por producto.
const (
	PromotionKindPercentage = "percentage"
	PromotionKind2x1        = "2x1"
	PromotionKind3x2        = "3x2"
)

// Promotion campaña con ventana de vigencia y productos afectados.
type Promotion struct {
	ID        string
	Name      string
	StartsAt  time.Time
	EndsAt    time.Time
	Active    bool
	CreatedAt time.Time
	Products  []PromotionProduct
}

// PromotionProduct regla de la promoción para un producto.
// MinQuantity cero significa sin mínimo.
type PromotionProduct struct {
	ProductID    string
	Kind         string
	Bonification decimal.Decimal
	MinQuantity  int
}

// IsActiveAt indica si la promoción está activa y en ventana (extremos incluidos).
func (p *Promotion) IsActiveAt(t time.Time) bool {
	if p == nil || !p.Active {
		return false
	}
	return !t.Before(p.StartsAt) && !t.After(p.EndsAt)
}

// Product busca la regla de un producto dentro de la promoción.
func (p *Promotion) Product(productID string) (PromotionProduct, bool) {
	if p == nil {
		return PromotionProduct{}, false
	}
	for _, pp := range p.Products {
		if pp.ProductID == productID {
			return pp, true
		}
	}
	return PromotionProduct{}, false
}
