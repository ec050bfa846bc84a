package order

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/db"
)

// Store is the slice of the order repository the protocol needs.
type Store interface {
	Insert(ctx context.Context, q db.Querier, o *Order) error
	GetByID(ctx context.Context, q db.Querier, id int64) (*Order, error)
	Update(ctx context.Context, q db.Querier, o *Order) error
	UpdateState(ctx context.Context, q db.Querier, id int64, state Status) error
	List(ctx context.Context, q db.Querier) ([]Order, error)
	ListByOwner(ctx context.Context, q db.Querier, ownerID int64) ([]Order, error)
}

// Ledger is the inventory side of the protocol. Every call is an atomic
// conditional update against a single product.
type Ledger interface {
	Reserve(ctx context.Context, q db.Querier, productID int64, qty int) error
	Confirm(ctx context.Context, q db.Querier, productID int64, qty int) error
	Release(ctx context.Context, q db.Querier, productID int64, qty int) error
	Restock(ctx context.Context, q db.Querier, productID int64, qty int) error
}

type Sequence interface {
	Next(ctx context.Context, q db.Querier, name string) (int64, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Notifier is the fire-and-forget boundary for new-order notifications.
type Notifier interface {
	NotifyNewOrder(ctx context.Context, o *Order) error
}

type ItemInput struct {
	ProductID int64
	Name      string
	UnitPrice float64
	Quantity  int
}

type CreateInput struct {
	OwnerID  *int64
	Customer Customer
	Items    []ItemInput
	Total    float64
}

// Service implements the order lifecycle: creation reserves inventory,
// confirmation converts reservations into deductions, cancellation returns
// them, and item removal releases partial reservations. Every multi-product
// step runs inside one transaction so a failing item never leaves earlier
// items applied.
type Service struct {
	tx       TxRunner
	pool     db.Querier
	repo     Store
	ledger   Ledger
	seq      Sequence
	notifier Notifier
}

func NewService(tx TxRunner, pool db.Querier, repo Store, ledger Ledger, seq Sequence, notifier Notifier) *Service {
	return &Service{
		tx:       tx,
		pool:     pool,
		repo:     repo,
		ledger:   ledger,
		seq:      seq,
		notifier: notifier,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	// Reservations apply in product-id order, not cart order: concurrent
	// creates must lock shared product rows in the same sequence.
	toReserve := make([]ItemInput, len(in.Items))
	copy(toReserve, in.Items)
	sort.Slice(toReserve, func(i, j int) bool { return toReserve[i].ProductID < toReserve[j].ProductID })

	var created *Order
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		// Reserve every line first: the first shortfall aborts the
		// transaction, taking any earlier reservations with it.
		for _, item := range toReserve {
			if err := s.ledger.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		// The sequence advances inside the same transaction, so an aborted
		// create does not burn an order ID.
		id, err := s.seq.Next(ctx, tx, "orders")
		if err != nil {
			return err
		}

		o := &Order{
			ID:              id,
			OwnerID:         in.OwnerID,
			Customer:        in.Customer,
			State:           StatusPending,
			ShippingAddress: "-",
			Items:           make([]Item, 0, len(in.Items)),
		}
		for _, item := range in.Items {
			o.Items = append(o.Items, Item{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				Subtotal:  item.UnitPrice * float64(item.Quantity),
			})
		}
		// The stored total is derived from the lines, not taken from the
		// request: clients send it, the lines decide it.
		o.RecomputeTotal()

		if err := s.repo.Insert(ctx, tx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("service: order creation failed")
		return nil, err
	}

	log.Info().Int64("order_id", created.ID).Float64("total", created.Total).Msg("service: order created")
	s.notifyAsync(*created)

	return created, nil
}

// notifyAsync tells the notification boundary about a committed order.
// It runs off the request path and its failures never reach the caller.
func (s *Service) notifyAsync(o Order) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyNewOrder(ctx, &o); err != nil {
			log.Warn().Err(err).Int64("order_id", o.ID).Msg("service: new-order notification failed")
		}
	}()
}

func (s *Service) UpdateState(ctx context.Context, id int64, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, apperr.Newf(apperr.InvalidTransition, "unknown order state %q", next)
	}

	var updated *Order
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.applyInventoryEffects(ctx, tx, o, next); err != nil {
			return err
		}

		if err := s.repo.UpdateState(ctx, tx, id, next); err != nil {
			return err
		}
		o.State = next
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("order_id", id).Str("state", next.String()).Msg("service: order state updated")
	return updated, nil
}

// applyInventoryEffects performs the ledger side of a state transition:
// pending→confirmed promotes reservations, pending→cancelled releases
// them, and cancelling an already-confirmed order returns real stock.
// Transitions outside the table (and no-op same-state updates) touch
// nothing.
func (s *Service) applyInventoryEffects(ctx context.Context, q db.Querier, o *Order, next Status) error {
	if o.State == next {
		return nil
	}

	switch {
	case next == StatusConfirmed && o.State == StatusPending:
		for _, item := range o.Items {
			if err := s.ledger.Confirm(ctx, q, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	case next == StatusCancelled && o.State == StatusPending:
		for _, item := range o.Items {
			if err := s.ledger.Release(ctx, q, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	case next == StatusCancelled:
		// Confirmed, shipped or delivered: the deduction was real, so the
		// cancellation returns real stock rather than a reservation.
		for _, item := range o.Items {
			if err := s.ledger.Restock(ctx, q, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, orderID, productID int64, qty int) (*Order, error) {
	if qty <= 0 {
		return nil, apperr.New(apperr.Validation, "quantity must be greater than zero")
	}

	var updated *Order
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.repo.GetByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.State != StatusPending {
			return apperr.Newf(apperr.NotPending, "order %d is %s, items can only be removed while pending", orderID, o.State)
		}

		var line *Item
		for i := range o.Items {
			if o.Items[i].ProductID == productID {
				line = &o.Items[i]
				break
			}
		}
		if line == nil {
			return apperr.Newf(apperr.NotFound, "product %d is not part of order %d", productID, orderID)
		}

		// Removal clamps to what the line actually holds, and only that
		// much reservation is given back.
		removed := qty
		if removed > line.Quantity {
			removed = line.Quantity
		}

		if err := s.ledger.Release(ctx, tx, productID, removed); err != nil {
			return err
		}

		if _, err := o.RemoveQuantity(productID, removed); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, tx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("order_id", orderID).Int64("product_id", productID).Str("state", updated.State.String()).Msg("service: order item removed")
	return updated, nil
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.List(ctx, s.pool)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, err
	}
	return orders, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]Order, error) {
	orders, err := s.repo.ListByOwner(ctx, s.pool, ownerID)
	if err != nil {
		log.Error().Err(err).Int64("owner_id", ownerID).Msg("service: failed to list orders by owner")
		return nil, err
	}
	return orders, nil
}

func validateCreate(in CreateInput) error {
	if len(in.Items) == 0 {
		return apperr.New(apperr.Validation, "order must contain at least one item")
	}
	seen := make(map[int64]bool, len(in.Items))
	for _, item := range in.Items {
		if item.ProductID <= 0 {
			return apperr.New(apperr.Validation, "order item product id is required")
		}
		if seen[item.ProductID] {
			return apperr.Newf(apperr.Validation, "product %d appears more than once in the order", item.ProductID)
		}
		seen[item.ProductID] = true
		if item.Quantity <= 0 {
			return apperr.Newf(apperr.Validation, "quantity for product %d must be greater than zero", item.ProductID)
		}
		if item.UnitPrice < 0 {
			return apperr.Newf(apperr.Validation, "unit price for product %d cannot be negative", item.ProductID)
		}
	}
	c := in.Customer
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.NationalID) == "" ||
		strings.TrimSpace(c.Phone) == "" || strings.TrimSpace(c.Email) == "" {
		return apperr.New(apperr.Validation, "customer name, national id, phone and email are required")
	}
	return nil
}
