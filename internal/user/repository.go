package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/db"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, q db.Querier, u *User) error {
	err := q.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, phone, address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, u.Address, string(u.Role)).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperr.Wrap(apperr.Conflict, "email is already registered", err)
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, q db.Querier, id int64) (*User, error) {
	return r.get(ctx, q, `WHERE id = $1`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, q db.Querier, email string) (*User, error) {
	return r.get(ctx, q, `WHERE email = $1`, email)
}

func (r *Repository) get(ctx context.Context, q db.Querier, where string, arg any) (*User, error) {
	var u User
	var role string
	err := q.QueryRow(ctx, `
		SELECT id, name, email, password_hash, phone, address, role, created_at, updated_at
		FROM users `+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, fmt.Errorf("repository: failed to select user: %w", err)
	}
	u.Role = roleFromString(role)
	return &u, nil
}

func (r *Repository) List(ctx context.Context, q db.Querier) ([]User, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, email, password_hash, phone, address, role, created_at, updated_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		var role string
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &role, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan user: %w", err)
		}
		u.Role = roleFromString(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating users: %w", err)
	}
	return users, nil
}
