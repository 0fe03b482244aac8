package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// Resolution resultado de resolver un producto contra una promoción.
// Kind vacío indica la ruta porcentual con Bonification.
type Resolution struct {
	Kind         string
	Bonification decimal.Decimal
	MinQuantity  int
}

// IsPack indica si la resolución impone un pack 2x1/3x2.
func (r *Resolution) IsPack() bool {
	return r != nil && isPack(r.Kind)
}

// ResolvePromotionKind busca el producto en la promoción.
// nil si no hay promoción o el producto no está en ella: la línea usa su propia bonificación.
func ResolvePromotionKind(promotion *entity.Promotion, productID string) *Resolution {
	pp, ok := promotion.Product(productID)
	if !ok {
		return nil
	}
	switch pp.Kind {
	case entity.PromotionKind2x1, entity.PromotionKind3x2:
		return &Resolution{Kind: pp.Kind, MinQuantity: pp.MinQuantity}
	case entity.PromotionKindPercentage:
		return &Resolution{Bonification: pp.Bonification, MinQuantity: pp.MinQuantity}
	default:
		return nil
	}
}

// ResolveForQuantity igual que ResolvePromotionKind pero descarta la regla si la
// cantidad no alcanza el mínimo exigido por la promoción.
func ResolveForQuantity(promotion *entity.Promotion, productID string, quantity int) *Resolution {
	r := ResolvePromotionKind(promotion, productID)
	if r == nil {
		return nil
	}
	if r.MinQuantity > 0 && quantity < r.MinQuantity {
		return nil
	}
	return r
}

// Draft datos de línea tal como llegan del borrador.
type Draft struct {
	ProductID           string
	UnitValue           decimal.Decimal
	Quantity            int
	BonificationPercent decimal.Decimal
	AppliesToAllUnits   bool
}

// ApplyResolution combina la línea del borrador con la resolución de la promoción.
func ApplyResolution(d Draft, r *Resolution) LineInput {
	in := LineInput{
		UnitValue:           d.UnitValue,
		Quantity:            d.Quantity,
		BonificationPercent: d.BonificationPercent,
		AppliesToAllUnits:   d.AppliesToAllUnits,
	}
	if r == nil {
		return in
	}
	if r.IsPack() {
		in.PackType = r.Kind
		in.BonificationPercent = decimal.Zero
		return in
	}
	in.BonificationPercent = r.Bonification
	in.MinQuantity = r.MinQuantity
	return in
}

// SelectPromotionForProduct elige, entre las promociones activas en at que incluyen
// el producto, la creada más recientemente (desempate por ID mayor).
func SelectPromotionForProduct(promotions []*entity.Promotion, productID string, at time.Time) *entity.Promotion {
	candidates := make([]*entity.Promotion, 0, len(promotions))
	for _, p := range promotions {
		if !p.IsActiveAt(at) {
			continue
		}
		if _, ok := p.Product(productID); ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
		return candidates[i].ID > candidates[j].ID
	})
	return candidates[0]
}
