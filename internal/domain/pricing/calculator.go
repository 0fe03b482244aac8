package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// LineInput datos efectivos de una línea ya resuelta contra la promoción.
// PackType vacío = ruta de bonificación porcentual.
type LineInput struct {
	UnitValue           decimal.Decimal
	Quantity            int
	BonificationPercent decimal.Decimal
	PackType            string
	AppliesToAllUnits   bool
	MinQuantity         int
}

// Totals subtotales de un presupuesto.
type Totals struct {
	SubtotalRate         decimal.Decimal
	SubtotalSubscription decimal.Decimal
	SubtotalExtras       decimal.Decimal
	Total                decimal.Decimal
}

// PayableUnits unidades que se cobran según el pack.
// 2x1: ⌊q/2⌋ + q mod 2. 3x2: ⌊q/3⌋·2 + q mod 3. Sin pack: q.
func PayableUnits(quantity int, packType string) int {
	if quantity <= 0 {
		return 0
	}
	switch packType {
	case entity.PromotionKind2x1:
		return quantity/2 + quantity%2
	case entity.PromotionKind3x2:
		return (quantity/3)*2 + quantity%3
	default:
		return quantity
	}
}

// LineSubtotal calcula el subtotal de una línea redondeado a 2 decimales (half-up).
// El pack siempre gana sobre la bonificación. Nunca devuelve un valor negativo:
// valores unitarios negativos cuentan como cero y la bonificación se acota a [0, 100].
func LineSubtotal(unitValue decimal.Decimal, quantity int, bonificationPercent decimal.Decimal, packType string) decimal.Decimal {
	return Subtotal(LineInput{
		UnitValue:           unitValue,
		Quantity:            quantity,
		BonificationPercent: bonificationPercent,
		PackType:            packType,
		AppliesToAllUnits:   true,
	})
}

// Subtotal variante de LineSubtotal que respeta AppliesToAllUnits/MinQuantity:
// con AppliesToAllUnits=false las primeras MinQuantity-1 unidades van a precio de lista.
func Subtotal(in LineInput) decimal.Decimal {
	if in.Quantity <= 0 || !in.UnitValue.IsPositive() {
		return decimal.Zero.Round(2)
	}
	if isPack(in.PackType) {
		payable := decimal.NewFromInt(int64(PayableUnits(in.Quantity, in.PackType)))
		return in.UnitValue.Mul(payable).Round(2)
	}

	bonif := clampPercent(in.BonificationPercent)
	factor := decimal.NewFromInt(1).Sub(bonif.Div(hundred))

	fullPriceUnits := 0
	if !in.AppliesToAllUnits && in.MinQuantity > 1 {
		fullPriceUnits = in.MinQuantity - 1
		if fullPriceUnits > in.Quantity {
			fullPriceUnits = in.Quantity
		}
	}
	discounted := in.Quantity - fullPriceUnits

	full := in.UnitValue.Mul(decimal.NewFromInt(int64(fullPriceUnits)))
	disc := in.UnitValue.Mul(decimal.NewFromInt(int64(discounted))).Mul(factor)
	return full.Add(disc).Round(2)
}

// QuoteTotals suma los subtotales de tasa, abono y extras. Función pura.
func QuoteTotals(rate, subscription LineInput, extras []LineInput) Totals {
	t := Totals{
		SubtotalRate:         Subtotal(rate),
		SubtotalSubscription: Subtotal(subscription),
		SubtotalExtras:       decimal.Zero,
	}
	for _, e := range extras {
		t.SubtotalExtras = t.SubtotalExtras.Add(Subtotal(e))
	}
	t.SubtotalExtras = t.SubtotalExtras.Round(2)
	t.Total = t.SubtotalRate.Add(t.SubtotalSubscription).Add(t.SubtotalExtras).Round(2)
	return t
}

func isPack(packType string) bool {
	return packType == entity.PromotionKind2x1 || packType == entity.PromotionKind3x2
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
