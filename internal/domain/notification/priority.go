// Package notification reúne las reglas de dominio de los avisos programados:
// la tabla de umbrales de prioridad por tipo.
package notification

import (
	"math"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// Thresholds días hasta el vencimiento que marcan cada prioridad.
// AlwaysUrgent ignora los días.
type Thresholds struct {
	UrgentDays   int
	HighDays     int
	AlwaysUrgent bool
}

// DefaultThresholds se aplica a los tipos sin entrada propia.
var DefaultThresholds = Thresholds{UrgentDays: 2, HighDays: 7}

// PriorityTable umbrales por tipo de notificación.
var PriorityTable = map[string]Thresholds{
	entity.NotificationCommentReminder: {UrgentDays: 2, HighDays: 7},
	entity.NotificationLostFollowUp:    {UrgentDays: 3, HighDays: 14},
	entity.NotificationQuoteExpiring:   {UrgentDays: 2, HighDays: 7},
	entity.NotificationQuoteCreated:    {UrgentDays: 2, HighDays: 7},
	entity.NotificationQuoteExpired:    {AlwaysUrgent: true},
	entity.NotificationLeadExpired:     {AlwaysUrgent: true},
}

// ThresholdsFor devuelve los umbrales del tipo o DefaultThresholds.
func ThresholdsFor(notificationType string) Thresholds {
	if t, ok := PriorityTable[notificationType]; ok {
		return t
	}
	return DefaultThresholds
}

// DaysUntil días (redondeados hacia arriba) entre now y due. Negativo si ya pasó.
func DaysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// Priority prioridad de un aviso de tipo notificationType que vence en due.
func Priority(notificationType string, now, due time.Time) string {
	t := ThresholdsFor(notificationType)
	if t.AlwaysUrgent {
		return entity.PriorityUrgent
	}
	days := DaysUntil(now, due)
	switch {
	case days <= t.UrgentDays:
		return entity.PriorityUrgent
	case days <= t.HighDays:
		return entity.PriorityHigh
	default:
		return entity.PriorityNormal
	}
}
