package user

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/auth"
	"github.com/cheapshop/backend/internal/db"
)

type Store interface {
	Insert(ctx context.Context, q db.Querier, u *User) error
	GetByID(ctx context.Context, q db.Querier, id int64) (*User, error)
	GetByEmail(ctx context.Context, q db.Querier, email string) (*User, error)
	List(ctx context.Context, q db.Querier) ([]User, error)
}

type Sequence interface {
	Next(ctx context.Context, q db.Querier, name string) (int64, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TokenIssuer mints tokens for freshly registered or logged-in users.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Address  *string
}

type Service struct {
	tx     TxRunner
	pool   db.Querier
	repo   Store
	seq    Sequence
	tokens TokenIssuer
}

func NewService(tx TxRunner, pool db.Querier, repo Store, seq Sequence, tokens TokenIssuer) *Service {
	return &Service{tx: tx, pool: pool, repo: repo, seq: seq, tokens: tokens}
}

// Register creates a customer account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", apperr.New(apperr.Validation, "name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	var created *User
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		id, err := s.seq.Next(ctx, tx, "users")
		if err != nil {
			return err
		}
		u := &User{
			ID:           id,
			Name:         in.Name,
			Email:        strings.ToLower(in.Email),
			PasswordHash: string(hash),
			Phone:        in.Phone,
			Address:      in.Address,
			Role:         auth.RoleCustomer,
		}
		if err := s.repo.Insert(ctx, tx, u); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("email", in.Email).Msg("service: user registration failed")
		return nil, "", err
	}

	token, err := s.tokens.Issue(auth.Principal{ID: created.ID, Email: created.Email, Role: created.Role})
	if err != nil {
		return nil, "", err
	}

	log.Info().Int64("user_id", created.ID).Msg("service: user registered")
	return created, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.New(apperr.Validation, "email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, s.pool, strings.ToLower(email))
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, "", apperr.New(apperr.Unauthorized, "invalid credentials")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.New(apperr.Unauthorized, "invalid credentials")
	}

	token, err := s.tokens.Issue(auth.Principal{ID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, "", err
	}

	log.Info().Int64("user_id", u.ID).Msg("service: user logged in")
	return u, token, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, s.pool, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx, s.pool)
}

func roleFromString(role string) auth.Role {
	if role == string(auth.RoleAdmin) {
		return auth.RoleAdmin
	}
	return auth.RoleCustomer
}
