package order

import (
	"time"

	"github.com/cheapshop/backend/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Customer is the snapshot captured at order time. It is owned by the
// order and stays as-is even if the live user record changes later.
type Customer struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

type Item struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type Order struct {
	ID              int64     `json:"id"`
	OwnerID         *int64    `json:"ownerId,omitempty"`
	Customer        Customer  `json:"customer"`
	Items           []Item    `json:"items"`
	Total           float64   `json:"total"`
	State           Status    `json:"state"`
	ShippingAddress string    `json:"shippingAddress"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RecomputeTotal restores the invariant total == sum of line subtotals.
// A line missing its subtotal gets it rebuilt from unit price and quantity.
func (o *Order) RecomputeTotal() {
	total := 0.0
	for i := range o.Items {
		item := &o.Items[i]
		if item.Subtotal == 0 {
			item.Subtotal = item.UnitPrice * float64(item.Quantity)
		}
		total += item.Subtotal
	}
	o.Total = total
}

// RemoveQuantity takes up to qty units off the matching line, clamped to
// the line's current quantity. The line disappears when it reaches zero,
// and an order left with no lines cancels itself. Returns the number of
// units actually removed.
func (o *Order) RemoveQuantity(productID int64, qty int) (int, error) {
	idx := -1
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, apperr.Newf(apperr.NotFound, "product %d is not part of order %d", productID, o.ID)
	}

	item := &o.Items[idx]
	removed := qty
	if removed > item.Quantity {
		removed = item.Quantity
	}

	item.Quantity -= removed
	if item.Quantity <= 0 {
		o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	} else {
		item.Subtotal = item.UnitPrice * float64(item.Quantity)
	}

	o.RecomputeTotal()

	if len(o.Items) == 0 {
		o.State = StatusCancelled
	}

	return removed, nil
}
