package sqlite

import (
	"context"
	"database/sql"

	"github.com/Mir00r/planify-backend/internal/auth/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) scanRole(row *sql.Row) (domain.Role, error) {
	var role domain.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	return r.scanRole(r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = ?`, id))
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	return r.scanRole(r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?`, name))
}
