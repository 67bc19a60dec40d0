package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ktran209/go-pos/internal/auth"
	"github.com/ktran209/go-pos/internal/core/domain"
)

// Resolve implements auth.Resolver against the users table. Password
// verification and token issuance live outside this service; the
// handlers only need token -> principal.
func (m *MySQLAdapter) Resolve(ctx context.Context, token string) (*auth.Principal, error) {
	var p auth.Principal
	err := m.db.QueryRowContext(ctx, `
		SELECT id, username, role FROM users WHERE api_token = ?`, token,
	).Scan(&p.ID, &p.Username, &p.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "resolve principal", Err: err}
	}
	return &p, nil
}
