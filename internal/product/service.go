package product

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/cheapshop/backend/internal/db"
)

type Store interface {
	Insert(ctx context.Context, q db.Querier, p *Product) error
	GetByID(ctx context.Context, q db.Querier, id int64) (*Product, error)
	GetByIDForUpdate(ctx context.Context, q db.Querier, id int64) (*Product, error)
	List(ctx context.Context, q db.Querier) ([]Product, error)
	Update(ctx context.Context, q db.Querier, p *Product) error
	Delete(ctx context.Context, q db.Querier, id int64) error
}

type Sequence interface {
	Next(ctx context.Context, q db.Querier, name string) (int64, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type CreateInput struct {
	Type          string
	Name          string
	Description   string
	Price         float64
	PreviousPrice *float64
	Images        []string
	Sizes         []string
	Colors        []string
	Stock         int
}

// UpdateInput carries only the fields the caller wants to change.
type UpdateInput struct {
	Type          *string
	Name          *string
	Description   *string
	Price         *float64
	PreviousPrice *float64
	Images        []string
	Sizes         []string
	Colors        []string
	Stock         *int
}

type Service struct {
	tx   TxRunner
	pool db.Querier
	repo Store
	seq  Sequence
}

func NewService(tx TxRunner, pool db.Querier, repo Store, seq Sequence) *Service {
	return &Service{tx: tx, pool: pool, repo: repo, seq: seq}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	var created *Product
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		id, err := s.seq.Next(ctx, tx, "products")
		if err != nil {
			return err
		}
		p := &Product{
			ID:            id,
			Type:          in.Type,
			Name:          in.Name,
			Description:   in.Description,
			Price:         in.Price,
			PreviousPrice: in.PreviousPrice,
			Images:        emptyIfNil(in.Images),
			Sizes:         emptyIfNil(in.Sizes),
			Colors:        emptyIfNil(in.Colors),
			Stock:         in.Stock,
		}
		if err := s.repo.Insert(ctx, tx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, err
	}

	log.Info().Int64("product_id", created.ID).Str("name", created.Name).Msg("service: product created")
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, s.pool, id)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, s.pool)
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Product, error) {
	var updated *Product
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		// The locking read holds the row until commit; the stock written
		// back below can never be a stale value from before a concurrent
		// ledger operation.
		p, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Type != nil {
			p.Type = *in.Type
		}
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.PreviousPrice != nil {
			p.PreviousPrice = in.PreviousPrice
		}
		if in.Images != nil {
			p.Images = in.Images
		}
		if in.Sizes != nil {
			p.Sizes = in.Sizes
		}
		if in.Colors != nil {
			p.Colors = in.Colors
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", id).Msg("service: product updated")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, s.pool, id); err != nil {
		return err
	}
	log.Info().Int64("product_id", id).Msg("service: product deleted")
	return nil
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
