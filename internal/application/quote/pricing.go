package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/pricing"
)

// promotionSource promoción aplicable a un producto (nil = ninguna).
type promotionSource func(productID string) *entity.Promotion

func noPromotion(string) *entity.Promotion { return nil }

// promotionFor resuelve la promoción del request: explícita, automática por producto o ninguna.
// Devuelve el id a persistir (solo en el caso explícito).
func (s *Service) promotionFor(ctx context.Context, items dto.QuoteItemsRequest, now time.Time) (promotionSource, string, error) {
	if items.PromotionID != "" {
		p, err := s.promoRepo.GetByID(ctx, items.PromotionID)
		if err != nil {
			return nil, "", err
		}
		if !p.IsActiveAt(now) {
			return nil, "", fmt.Errorf("%w: la promoción no está vigente", domain.ErrInvalidInput)
		}
		return func(string) *entity.Promotion { return p }, p.ID, nil
	}
	if !items.AutoPromotion {
		return noPromotion, "", nil
	}
	active, err := s.promoRepo.ListActive(ctx, now)
	if err != nil {
		return nil, "", fmt.Errorf("listar promociones: %w", err)
	}
	return func(productID string) *entity.Promotion {
		return pricing.SelectPromotionForProduct(active, productID, now)
	}, "", nil
}

// priceItems resuelve cada línea contra su promoción y calcula los totales.
func priceItems(items dto.QuoteItemsRequest, promo promotionSource) ([]entity.QuoteLine, pricing.Totals) {
	lines := make([]entity.QuoteLine, 0, 2+len(items.Extras))
	resolve := func(kind string, pos int, in dto.QuoteLineRequest) pricing.LineInput {
		r := pricing.ResolveForQuantity(promo(in.ProductID), in.ProductID, in.Quantity)
		eff := pricing.ApplyResolution(pricing.Draft{
			ProductID:           in.ProductID,
			UnitValue:           in.UnitValue,
			Quantity:            in.Quantity,
			BonificationPercent: in.BonificationPercent,
			AppliesToAllUnits:   in.AllUnits(),
		}, r)
		lines = append(lines, entity.QuoteLine{
			Kind:                kind,
			Position:            pos,
			ProductID:           in.ProductID,
			UnitValue:           eff.UnitValue,
			Quantity:            eff.Quantity,
			BonificationPercent: eff.BonificationPercent,
			PackPromotionType:   eff.PackType,
			AppliesToAllUnits:   eff.AppliesToAllUnits,
			MinQuantity:         eff.MinQuantity,
			Subtotal:            pricing.Subtotal(eff),
		})
		return eff
	}

	rate := resolve(entity.LineKindRate, 0, items.Rate)
	sub := resolve(entity.LineKindSubscription, 1, items.Subscription)
	extras := make([]pricing.LineInput, 0, len(items.Extras))
	for i, e := range items.Extras {
		extras = append(extras, resolve(entity.LineKindExtra, 2+i, e))
	}
	return lines, pricing.QuoteTotals(rate, sub, extras)
}

func linesToDTO(lines []entity.QuoteLine) []dto.QuoteLineResponse {
	out := make([]dto.QuoteLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.QuoteLineResponse{
			Kind:                l.Kind,
			Position:            l.Position,
			ProductID:           l.ProductID,
			UnitValue:           l.UnitValue,
			Quantity:            l.Quantity,
			PayableUnits:        pricing.PayableUnits(l.Quantity, l.PackPromotionType),
			BonificationPercent: l.BonificationPercent,
			PackPromotionType:   l.PackPromotionType,
			AppliesToAllUnits:   l.AppliesToAllUnits,
			MinQuantity:         l.MinQuantity,
			Subtotal:            l.Subtotal,
		})
	}
	return out
}

func totalsToDTO(t pricing.Totals) dto.QuoteTotalsResponse {
	return dto.QuoteTotalsResponse{
		SubtotalRate:         t.SubtotalRate,
		SubtotalSubscription: t.SubtotalSubscription,
		SubtotalExtras:       t.SubtotalExtras,
		Total:                t.Total,
	}
}

// dateOnly trunca a medianoche en la zona de t.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
