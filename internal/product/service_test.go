package product_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/db"
	"github.com/cheapshop/backend/internal/product"
)

type mockStore struct {
	insertFunc       func(ctx context.Context, q db.Querier, p *product.Product) error
	getByIDFunc      func(ctx context.Context, q db.Querier, id int64) (*product.Product, error)
	getForUpdateFunc func(ctx context.Context, q db.Querier, id int64) (*product.Product, error)
	listFunc         func(ctx context.Context, q db.Querier) ([]product.Product, error)
	updateFunc       func(ctx context.Context, q db.Querier, p *product.Product) error
	deleteFunc       func(ctx context.Context, q db.Querier, id int64) error
}

func (m *mockStore) Insert(ctx context.Context, q db.Querier, p *product.Product) error {
	return m.insertFunc(ctx, q, p)
}

func (m *mockStore) GetByID(ctx context.Context, q db.Querier, id int64) (*product.Product, error) {
	return m.getByIDFunc(ctx, q, id)
}

func (m *mockStore) GetByIDForUpdate(ctx context.Context, q db.Querier, id int64) (*product.Product, error) {
	return m.getForUpdateFunc(ctx, q, id)
}

func (m *mockStore) List(ctx context.Context, q db.Querier) ([]product.Product, error) {
	return m.listFunc(ctx, q)
}

func (m *mockStore) Update(ctx context.Context, q db.Querier, p *product.Product) error {
	return m.updateFunc(ctx, q, p)
}

func (m *mockStore) Delete(ctx context.Context, q db.Querier, id int64) error {
	return m.deleteFunc(ctx, q, id)
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type stubSequence struct{ next int64 }

func (s *stubSequence) Next(ctx context.Context, q db.Querier, name string) (int64, error) {
	s.next++
	return s.next, nil
}

func TestService_Create(t *testing.T) {
	var saved *product.Product
	store := &mockStore{
		insertFunc: func(ctx context.Context, q db.Querier, p *product.Product) error {
			saved = p
			return nil
		},
	}
	svc := product.NewService(passthroughTx{}, nil, store, &stubSequence{})

	created, err := svc.Create(context.Background(), product.CreateInput{
		Type:        "shirt",
		Name:        "Basic tee",
		Description: "plain cotton tee",
		Price:       19.99,
		Stock:       10,
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int64(1), created.ID, "id comes from the products sequence")
	assert.Equal(t, 10, created.Stock)
	assert.Equal(t, 0, created.Reserved, "new products start with no reservations")
	assert.NotNil(t, created.Images, "image list serializes as an array, never null")
	assert.Empty(t, created.Images)
}

func TestService_Update(t *testing.T) {
	existing := &product.Product{
		ID:          3,
		Type:        "shirt",
		Name:        "Basic tee",
		Description: "plain cotton tee",
		Price:       19.99,
		Stock:       10,
	}

	t.Run("applies_only_provided_fields", func(t *testing.T) {
		var saved *product.Product
		store := &mockStore{
			getByIDFunc: func(ctx context.Context, q db.Querier, id int64) (*product.Product, error) {
				t.Fatal("update must read through the locking variant")
				return nil, nil
			},
			getForUpdateFunc: func(ctx context.Context, q db.Querier, id int64) (*product.Product, error) {
				cp := *existing
				return &cp, nil
			},
			updateFunc: func(ctx context.Context, q db.Querier, p *product.Product) error {
				saved = p
				return nil
			},
		}
		svc := product.NewService(passthroughTx{}, nil, store, &stubSequence{})

		newPrice := 14.99
		updated, err := svc.Update(context.Background(), 3, product.UpdateInput{Price: &newPrice})

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, 14.99, updated.Price)
		assert.Equal(t, "Basic tee", updated.Name, "untouched fields keep their values")
		assert.Equal(t, 10, updated.Stock)
	})

	t.Run("missing_product", func(t *testing.T) {
		store := &mockStore{
			getForUpdateFunc: func(ctx context.Context, q db.Querier, id int64) (*product.Product, error) {
				return nil, apperr.Newf(apperr.NotFound, "product %d not found", id)
			},
		}
		svc := product.NewService(passthroughTx{}, nil, store, &stubSequence{})

		_, err := svc.Update(context.Background(), 99, product.UpdateInput{})
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})
}
