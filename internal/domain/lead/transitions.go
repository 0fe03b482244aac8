package lead

import "github.com/jhoicas/Comercial-api/pkg/textnorm"

// Transition destino de un tipo de comentario.
// Rejection marca la ruta de rechazo: al aplicarla se cancelan las notificaciones pendientes del lead.
type Transition struct {
	CommentType string
	TargetState string
	Rejection   bool
}

// Tipos de comentario con transición asociada.
const (
	CommentRecontactSuccess = "Recontacto exitoso"
	CommentInfoSent         = "Nueva información enviada"
	CommentRescheduled      = "Reagendado"
	CommentFinalRejection   = "Rechazo definitivo"
)

// DefaultTransitions tabla comentario → estado.
var DefaultTransitions = []Transition{
	{CommentType: CommentRecontactSuccess, TargetState: "Recontactando"},
	{CommentType: CommentInfoSent, TargetState: "Info Enviada"},
	{CommentType: CommentRescheduled, TargetState: "Reagendado"},
	{CommentType: CommentFinalRejection, TargetState: "Perdido", Rejection: true},
}

// TransitionTable busca la transición de un tipo de comentario ignorando
// mayúsculas, espacios sobrantes y diferencias de normalización Unicode.
type TransitionTable struct {
	rules map[string]Transition
}

func NewTransitionTable(rules []Transition) *TransitionTable {
	t := &TransitionTable{rules: make(map[string]Transition, len(rules))}
	for _, r := range rules {
		t.rules[textnorm.Key(r.CommentType)] = r
	}
	return t
}

// Lookup devuelve la transición o false si el tipo no cambia el estado.
func (t *TransitionTable) Lookup(commentType string) (Transition, bool) {
	r, ok := t.rules[textnorm.Key(commentType)]
	return r, ok
}
