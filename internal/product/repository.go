package product

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

const productColumns = `id, type, name, description, price, previous_price, images, sizes, colors, stock, reserved, created_at, updated_at`

func (r *Repository) Insert(ctx context.Context, q db.Querier, p *Product) error {
	err := q.QueryRow(ctx, `
		INSERT INTO products (id, type, name, description, price, previous_price, images, sizes, colors, stock, reserved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, now(), now())
		RETURNING created_at, updated_at
	`, p.ID, p.Type, p.Name, p.Description, p.Price, p.PreviousPrice, p.Images, p.Sizes, p.Colors, p.Stock).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product %d: %w", p.ID, classify(err))
	}
	p.Reserved = 0
	return nil
}

func (r *Repository) GetByID(ctx context.Context, q db.Querier, id int64) (*Product, error) {
	return r.getByID(ctx, q, id, "")
}

// GetByIDForUpdate locks the product row for the rest of the enclosing
// transaction, so the read-modify-write of an admin edit cannot interleave
// with a concurrent ledger operation on the same row.
func (r *Repository) GetByIDForUpdate(ctx context.Context, q db.Querier, id int64) (*Product, error) {
	return r.getByID(ctx, q, id, " FOR UPDATE")
}

func (r *Repository) getByID(ctx context.Context, q db.Querier, id int64, locking string) (*Product, error) {
	var p Product
	err := q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`+locking, id).Scan(
		&p.ID, &p.Type, &p.Name, &p.Description, &p.Price, &p.PreviousPrice,
		&p.Images, &p.Sizes, &p.Colors, &p.Stock, &p.Reserved, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "product %d not found", id)
		}
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}
	return &p, nil
}

func (r *Repository) List(ctx context.Context, q db.Querier) ([]Product, error) {
	rows, err := q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID, &p.Type, &p.Name, &p.Description, &p.Price, &p.PreviousPrice,
			&p.Images, &p.Sizes, &p.Colors, &p.Stock, &p.Reserved, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}
	return products, nil
}

func (r *Repository) Update(ctx context.Context, q db.Querier, p *Product) error {
	ct, err := q.Exec(ctx, `
		UPDATE products
		SET type = $2, name = $3, description = $4, price = $5, previous_price = $6,
			images = $7, sizes = $8, colors = $9, stock = $10, updated_at = now()
		WHERE id = $1
	`, p.ID, p.Type, p.Name, p.Description, p.Price, p.PreviousPrice, p.Images, p.Sizes, p.Colors, p.Stock)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %d: %w", p.ID, classify(err))
	}
	if ct.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "product %d not found", p.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, q db.Querier, id int64) error {
	ct, err := q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "product %d not found", id)
	}
	return nil
}

// classify maps constraint violations on the inventory counters to
// validation errors: setting stock below the held reservation is a caller
// mistake, not an internal failure.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return apperr.Wrap(apperr.Validation, "stock cannot drop below the reserved quantity", err)
	}
	return err
}
