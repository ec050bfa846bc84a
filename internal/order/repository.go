package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/db"
)

// Repository persists orders and their line items. Methods take a
// db.Querier so protocol steps can run inside the caller's transaction.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, q db.Querier, o *Order) error {
	err := q.QueryRow(ctx, `
		INSERT INTO orders (id, owner_id, customer_name, customer_national_id, customer_phone, customer_email,
			total, state, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`, o.ID, o.OwnerID, o.Customer.Name, o.Customer.NationalID, o.Customer.Phone, o.Customer.Email,
		o.Total, string(o.State), o.ShippingAddress).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order %d: %w", o.ID, err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		_, err = q.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, o.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %d: %w", o.ID, err)
		}
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, q db.Querier, id int64) (*Order, error) {
	var o Order
	var state string
	err := q.QueryRow(ctx, `
		SELECT id, owner_id, customer_name, customer_national_id, customer_phone, customer_email,
			total, state, shipping_address, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&o.ID,
		&o.OwnerID,
		&o.Customer.Name,
		&o.Customer.NationalID,
		&o.Customer.Phone,
		&o.Customer.Email,
		&o.Total,
		&state,
		&o.ShippingAddress,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "order %d not found", id)
		}
		return nil, fmt.Errorf("repository: failed to select order %d: %w", id, err)
	}
	o.State = Status(state)

	rows, err := q.Query(ctx, `
		SELECT product_id, name, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items for order %d: %w", id, err)
	}
	defer rows.Close()

	o.Items = make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("repository: failed to scan item for order %d: %w", id, err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating items for order %d: %w", id, err)
	}

	return &o, nil
}

// Update rewrites an order's mutable fields and replaces its line items.
// Only called from inside a transaction by the remove-item path.
func (r *Repository) Update(ctx context.Context, q db.Querier, o *Order) error {
	ct, err := q.Exec(ctx, `
		UPDATE orders
		SET total = $2, state = $3, updated_at = now()
		WHERE id = $1
	`, o.ID, o.Total, string(o.State))
	if err != nil {
		return fmt.Errorf("repository: failed to update order %d: %w", o.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "order %d not found", o.ID)
	}

	if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("repository: failed to clear items for order %d: %w", o.ID, err)
	}
	for i := range o.Items {
		item := &o.Items[i]
		_, err = q.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, o.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal)
		if err != nil {
			return fmt.Errorf("repository: failed to insert item for order %d: %w", o.ID, err)
		}
	}
	return nil
}

func (r *Repository) UpdateState(ctx context.Context, q db.Querier, id int64, state Status) error {
	ct, err := q.Exec(ctx, `
		UPDATE orders
		SET state = $2, updated_at = now()
		WHERE id = $1
	`, id, string(state))
	if err != nil {
		return fmt.Errorf("repository: failed to update state of order %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.Newf(apperr.NotFound, "order %d not found", id)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, q db.Querier) ([]Order, error) {
	return r.list(ctx, q, `
		SELECT id, owner_id, customer_name, customer_national_id, customer_phone, customer_email,
			total, state, shipping_address, created_at, updated_at
		FROM orders
		ORDER BY id DESC
	`)
}

func (r *Repository) ListByOwner(ctx context.Context, q db.Querier, ownerID int64) ([]Order, error) {
	return r.list(ctx, q, `
		SELECT id, owner_id, customer_name, customer_national_id, customer_phone, customer_email,
			total, state, shipping_address, created_at, updated_at
		FROM orders
		WHERE owner_id = $1
		ORDER BY id DESC
	`, ownerID)
}

func (r *Repository) list(ctx context.Context, q db.Querier, query string, args ...any) ([]Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[int64]*Order)
	var orderIDs []int64

	for rows.Next() {
		var o Order
		var state string
		err := rows.Scan(
			&o.ID,
			&o.OwnerID,
			&o.Customer.Name,
			&o.Customer.NationalID,
			&o.Customer.Phone,
			&o.Customer.Email,
			&o.Total,
			&state,
			&o.ShippingAddress,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.State = Status(state)
		o.Items = make([]Item, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemRows, err := q.Query(ctx, `
		SELECT order_id, product_id, name, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID int64
		var item Item
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}
	return result, nil
}
