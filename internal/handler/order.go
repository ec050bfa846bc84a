package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/auth"
	"github.com/cheapshop/backend/internal/order"
)

// OrderService is the slice of the order service these handlers use.
type OrderService interface {
	Create(ctx context.Context, in order.CreateInput) (*order.Order, error)
	UpdateState(ctx context.Context, id int64, next order.Status) (*order.Order, error)
	RemoveItem(ctx context.Context, orderID, productID int64, qty int) (*order.Order, error)
	List(ctx context.Context) ([]order.Order, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]order.Order, error)
}

type OrderHandler struct {
	svc      OrderService
	validate *validator.Validate
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc, validate: validator.New()}
}

type orderItemRequest struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

type orderCustomerRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"nationalId" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

type createOrderRequest struct {
	Items    []orderItemRequest   `json:"items" validate:"required,min=1,dive"`
	Total    *float64             `json:"total" validate:"required"`
	Customer orderCustomerRequest `json:"customer" validate:"required"`
}

type updateOrderStateRequest struct {
	State string `json:"state" validate:"required"`
}

type removeOrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	in := order.CreateInput{
		Total: *req.Total,
		Customer: order.Customer{
			Name:       req.Customer.Name,
			NationalID: req.Customer.NationalID,
			Phone:      req.Customer.Phone,
			Email:      req.Customer.Email,
		},
		Items: make([]order.ItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, order.ItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	if p, ok := auth.FromContext(r.Context()); ok {
		in.OwnerID = &p.ID
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, apperr.Unauthorized, "authentication required")
		return
	}
	orders, err := h.svc.ListByOwner(r.Context(), p.ID)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req updateOrderStateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.svc.UpdateState(r.Context(), id, order.Status(req.State))
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req removeOrderItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.svc.RemoveItem(r.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, apperr.Validation, "invalid order id")
		return 0, false
	}
	return id, true
}
