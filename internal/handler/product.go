package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/product"
)

type ProductService interface {
	Create(ctx context.Context, in product.CreateInput) (*product.Product, error)
	GetByID(ctx context.Context, id int64) (*product.Product, error)
	List(ctx context.Context) ([]product.Product, error)
	Update(ctx context.Context, id int64, in product.UpdateInput) (*product.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductHandler struct {
	svc      ProductService
	validate *validator.Validate
}

func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{svc: svc, validate: validator.New()}
}

type createProductRequest struct {
	Type          string   `json:"type" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	PreviousPrice *float64 `json:"previousPrice" validate:"omitempty,gt=0"`
	Images        []string `json:"images"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Stock         *int     `json:"stock" validate:"required,gte=0"`
}

type updateProductRequest struct {
	Type          *string  `json:"type" validate:"omitempty,min=1"`
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	Description   *string  `json:"description" validate:"omitempty,min=1"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	PreviousPrice *float64 `json:"previousPrice" validate:"omitempty,gt=0"`
	Images        []string `json:"images"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Stock         *int     `json:"stock" validate:"omitempty,gte=0"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), product.CreateInput{
		Type:          req.Type,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		PreviousPrice: req.PreviousPrice,
		Images:        req.Images,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		Stock:         *req.Stock,
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.svc.Update(r.Context(), id, product.UpdateInput{
		Type:          req.Type,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		PreviousPrice: req.PreviousPrice,
		Images:        req.Images,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		Stock:         req.Stock,
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, apperr.Validation, "invalid product id")
		return 0, false
	}
	return id, true
}
