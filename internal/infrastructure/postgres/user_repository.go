package postgres

import (
	"context"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo proyecciones de usuarios sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// FindRepForPrefix comercial activo asignado al prefijo. Con más de uno gana el de menor id.
func (r *UserRepo) FindRepForPrefix(ctx context.Context, prefixID string) (*entity.SalesRep, error) {
	query := `
		SELECT u.id, u.name, up.prefix_id
		FROM users u
		JOIN user_prefixes up ON up.user_id = u.id
		WHERE up.prefix_id = $1 AND u.role = $2 AND u.is_active = true
		ORDER BY u.id
		LIMIT 1`
	var rep entity.SalesRep
	err := r.q.QueryRow(ctx, query, prefixID, entity.RoleComercial).Scan(&rep.UserID, &rep.Name, &rep.PrefixID)
	if err != nil {
		return nil, notFound(err, "find rep for prefix")
	}
	return &rep, nil
}
