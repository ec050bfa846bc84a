package inventory_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/inventory"
)

// These tests exercise the conditional-update statements against a real
// database with the migrations applied. Set TEST_DATABASE_URL to run them.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping storage integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, id int64, stock, reserved int) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `TRUNCATE TABLE order_items, orders, products CASCADE`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO products (id, type, name, description, price, stock, reserved)
		VALUES ($1, 'shirt', 'tee', 'test product', 10, $2, $3)
	`, id, stock, reserved)
	require.NoError(t, err)
}

func counts(t *testing.T, pool *pgxpool.Pool, id int64) (stock, reserved int) {
	t.Helper()
	err := pool.QueryRow(context.Background(), `SELECT stock, reserved FROM products WHERE id = $1`, id).Scan(&stock, &reserved)
	require.NoError(t, err)
	return stock, reserved
}

func TestLedger_Reserve(t *testing.T) {
	pool := testPool(t)
	ledger := inventory.New()
	ctx := context.Background()

	t.Run("reserves_available_units", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 0)

		require.NoError(t, ledger.Reserve(ctx, pool, 1, 3))

		stock, reserved := counts(t, pool, 1)
		assert.Equal(t, 5, stock)
		assert.Equal(t, 3, reserved)
	})

	t.Run("rejects_when_availability_exhausted", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 4)

		err := ledger.Reserve(ctx, pool, 1, 2)

		assert.True(t, apperr.IsKind(err, apperr.InsufficientStock), "got %v", err)
		_, reserved := counts(t, pool, 1)
		assert.Equal(t, 4, reserved)
	})

	t.Run("missing_product_is_not_found", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 0)

		err := ledger.Reserve(ctx, pool, 42, 1)

		assert.True(t, apperr.IsKind(err, apperr.NotFound), "got %v", err)
	})
}

func TestLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	pool := testPool(t)
	ledger := inventory.New()
	seedProduct(t, pool, 1, 5, 0)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve(context.Background(), pool, 1, 1)
		}()
	}
	wg.Wait()
	close(results)

	succeeded, insufficient := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperr.IsKind(err, apperr.InsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 5, succeeded, "exactly the available quantity must win")
	assert.Equal(t, 5, insufficient)

	stock, reserved := counts(t, pool, 1)
	assert.Equal(t, 5, stock)
	assert.Equal(t, 5, reserved)
}

func TestLedger_Confirm(t *testing.T) {
	pool := testPool(t)
	ledger := inventory.New()
	ctx := context.Background()

	t.Run("decrements_both_counters", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 3)

		require.NoError(t, ledger.Confirm(ctx, pool, 1, 3))

		stock, reserved := counts(t, pool, 1)
		assert.Equal(t, 2, stock)
		assert.Equal(t, 0, reserved)
	})

	t.Run("fails_without_partial_state_when_reservation_too_small", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 2)

		err := ledger.Confirm(ctx, pool, 1, 3)

		assert.True(t, apperr.IsKind(err, apperr.InvalidReservation), "got %v", err)
		stock, reserved := counts(t, pool, 1)
		assert.Equal(t, 5, stock)
		assert.Equal(t, 2, reserved)
	})
}

func TestLedger_Release(t *testing.T) {
	pool := testPool(t)
	ledger := inventory.New()
	ctx := context.Background()

	t.Run("returns_held_units", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 3)

		require.NoError(t, ledger.Release(ctx, pool, 1, 3))

		stock, reserved := counts(t, pool, 1)
		assert.Equal(t, 5, stock, "release never touches real stock")
		assert.Equal(t, 0, reserved)
	})

	t.Run("clamps_at_zero", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 2)

		require.NoError(t, ledger.Release(ctx, pool, 1, 10))

		_, reserved := counts(t, pool, 1)
		assert.Equal(t, 0, reserved)
	})

	t.Run("deleted_product_is_a_no_op", func(t *testing.T) {
		seedProduct(t, pool, 1, 5, 2)

		require.NoError(t, ledger.Release(ctx, pool, 42, 2))

		_, reserved := counts(t, pool, 1)
		assert.Equal(t, 2, reserved)
	})
}

func TestLedger_Restock(t *testing.T) {
	pool := testPool(t)
	ledger := inventory.New()
	ctx := context.Background()

	t.Run("returns_real_stock", func(t *testing.T) {
		seedProduct(t, pool, 1, 2, 0)

		require.NoError(t, ledger.Restock(ctx, pool, 1, 3))

		stock, reserved := counts(t, pool, 1)
		assert.Equal(t, 5, stock)
		assert.Equal(t, 0, reserved)
	})

	t.Run("deleted_product_is_a_no_op", func(t *testing.T) {
		seedProduct(t, pool, 1, 2, 0)

		require.NoError(t, ledger.Restock(ctx, pool, 42, 3))

		stock, _ := counts(t, pool, 1)
		assert.Equal(t, 2, stock)
	})
}
