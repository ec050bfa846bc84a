package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/auth"
	"github.com/cheapshop/backend/internal/db"
	"github.com/cheapshop/backend/internal/user"
)

type mockStore struct {
	insertFunc     func(ctx context.Context, q db.Querier, u *user.User) error
	getByIDFunc    func(ctx context.Context, q db.Querier, id int64) (*user.User, error)
	getByEmailFunc func(ctx context.Context, q db.Querier, email string) (*user.User, error)
	listFunc       func(ctx context.Context, q db.Querier) ([]user.User, error)
}

func (m *mockStore) Insert(ctx context.Context, q db.Querier, u *user.User) error {
	return m.insertFunc(ctx, q, u)
}

func (m *mockStore) GetByID(ctx context.Context, q db.Querier, id int64) (*user.User, error) {
	return m.getByIDFunc(ctx, q, id)
}

func (m *mockStore) GetByEmail(ctx context.Context, q db.Querier, email string) (*user.User, error) {
	return m.getByEmailFunc(ctx, q, email)
}

func (m *mockStore) List(ctx context.Context, q db.Querier) ([]user.User, error) {
	return m.listFunc(ctx, q)
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

func newService(store *mockStore) *user.Service {
	tokens := auth.NewManager("test-secret", time.Hour)
	return user.NewService(passthroughTx{}, nil, store, &stubSequence{}, tokens)
}

func TestService_Register(t *testing.T) {
	t.Run("hashes_password_and_issues_token", func(t *testing.T) {
		var saved *user.User
		store := &mockStore{
			insertFunc: func(ctx context.Context, q db.Querier, u *user.User) error {
				saved = u
				return nil
			},
		}

		created, token, err := newService(store).Register(context.Background(), user.RegisterInput{
			Name:     "Ana",
			Email:    "Ana@Example.com",
			Password: "secret123",
		})

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, "ana@example.com", created.Email, "emails are stored lowercased")
		assert.Equal(t, auth.RoleCustomer, created.Role)
		assert.NotEmpty(t, token)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("secret123")))
		assert.NotEqual(t, "secret123", saved.PasswordHash)
	})

	t.Run("missing_fields_rejected", func(t *testing.T) {
		_, _, err := newService(&mockStore{}).Register(context.Background(), user.RegisterInput{Email: "a@b.c"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("duplicate_email_conflicts", func(t *testing.T) {
		store := &mockStore{
			insertFunc: func(ctx context.Context, q db.Querier, u *user.User) error {
				return apperr.New(apperr.Conflict, "email is already registered")
			},
		}

		_, _, err := newService(store).Register(context.Background(), user.RegisterInput{
			Name:     "Ana",
			Email:    "ana@example.com",
			Password: "secret123",
		})
		assert.True(t, apperr.IsKind(err, apperr.Conflict))
	})
}

func TestService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &user.User{ID: 1, Email: "ana@example.com", PasswordHash: string(hash), Role: auth.RoleCustomer}

	t.Run("valid_credentials", func(t *testing.T) {
		store := &mockStore{
			getByEmailFunc: func(ctx context.Context, q db.Querier, email string) (*user.User, error) {
				assert.Equal(t, "ana@example.com", email)
				return stored, nil
			},
		}

		u, token, err := newService(store).Login(context.Background(), "Ana@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong_password", func(t *testing.T) {
		store := &mockStore{
			getByEmailFunc: func(ctx context.Context, q db.Querier, email string) (*user.User, error) {
				return stored, nil
			},
		}

		_, _, err := newService(store).Login(context.Background(), "ana@example.com", "wrong")
		assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
	})

	t.Run("unknown_email_reported_as_bad_credentials", func(t *testing.T) {
		store := &mockStore{
			getByEmailFunc: func(ctx context.Context, q db.Querier, email string) (*user.User, error) {
				return nil, apperr.New(apperr.NotFound, "user not found")
			},
		}

		_, _, err := newService(store).Login(context.Background(), "nobody@example.com", "secret123")
		assert.True(t, apperr.IsKind(err, apperr.Unauthorized), "login must not reveal whether the email exists")
	})

	t.Run("missing_fields_rejected", func(t *testing.T) {
		_, _, err := newService(&mockStore{}).Login(context.Background(), "", "")
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})
}
