// Package inventory owns the per-product stock/reserved counters. Every
// mutation is a single conditional UPDATE against one product row: the
// invariant stock >= reserved >= 0 is enforced at the statement level and
// never via read-then-write from process memory.
package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/db"
)

type Ledger struct{}

func New() *Ledger {
	return &Ledger{}
}

// Reserve places a hold of qty units on a product. It succeeds only when
// stock - reserved >= qty at the moment the statement applies, so two
// concurrent reservations can never jointly oversell a product.
func (l *Ledger) Reserve(ctx context.Context, q db.Querier, productID int64, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE products
		SET reserved = reserved + $2, updated_at = now()
		WHERE id = $1 AND stock - reserved >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("inventory: failed to reserve %d units of product %d: %w", qty, productID, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("inventory: failed to check product %d: %w", productID, err)
	}
	if !exists {
		return apperr.Newf(apperr.NotFound, "product %d not found", productID)
	}
	return apperr.Newf(apperr.InsufficientStock, "insufficient stock for product %d", productID)
}

// Confirm promotes a reservation into a real deduction, decrementing both
// counters in one statement. Both preconditions are checked in the same
// statement so a failure leaves no partial state.
func (l *Ledger) Confirm(ctx context.Context, q db.Querier, productID int64, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, reserved = reserved - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2 AND reserved >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("inventory: failed to confirm %d units of product %d: %w", qty, productID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.Newf(apperr.InvalidReservation, "cannot confirm %d units of product %d: stock or reservation too low", qty, productID)
	}
	return nil
}

// Release returns held units without touching real stock. The decrement
// clamps at zero, and a missing product row is a no-op: releasing is
// best-effort on cancellation/cleanup paths and must still succeed for
// orders whose product has since been deleted.
func (l *Ledger) Release(ctx context.Context, q db.Querier, productID int64, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE products
		SET reserved = GREATEST(reserved - $2, 0), updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("inventory: failed to release %d units of product %d: %w", qty, productID, err)
	}
	if ct.RowsAffected() == 0 {
		log.Debug().Int64("product_id", productID).Msg("inventory: release matched no product")
	}
	return nil
}

// Restock returns real stock, used when cancelling an order whose items
// were already confirmed. Like Release it treats a missing product row as
// a no-op so a deleted product cannot block a cancellation.
func (l *Ledger) Restock(ctx context.Context, q db.Querier, productID int64, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("inventory: failed to restock %d units of product %d: %w", qty, productID, err)
	}
	if ct.RowsAffected() == 0 {
		log.Debug().Int64("product_id", productID).Msg("inventory: restock matched no product")
	}
	return nil
}
