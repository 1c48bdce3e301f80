package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shortland/backend/internal/domain/users"
	"github.com/shortland/backend/internal/ports"
)

// UsersRepo implements persistence for user accounts.
type UsersRepo struct{}

func NewUsersRepo() ports.UserRepository {
	return &UsersRepo{}
}

// Create inserts a new account. A duplicate email surfaces as users.ErrUserExists.
func (r *UsersRepo) Create(ctx context.Context, u *users.User) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role).Scan(&u.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on email
		return users.ErrUserExists
	}
	return err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getBy(ctx, `
		SELECT id, name, email, password, role, created_at
		FROM users
		WHERE email = $1
	`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getBy(ctx, `
		SELECT id, name, email, password, role, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *UsersRepo) getBy(ctx context.Context, query string, arg any) (*users.User, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var u users.User
	err = tx.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
