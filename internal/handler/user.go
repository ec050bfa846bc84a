package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cheapshop/backend/internal/apperr"
	"github.com/cheapshop/backend/internal/auth"
	"github.com/cheapshop/backend/internal/user"
)

type UserService interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

type UserHandler struct {
	svc      UserService
	validate *validator.Validate
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc, validate: validator.New()}
}

type registerRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, token, err := h.svc.Register(r.Context(), user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, authResponse{User: u, Token: token})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, authResponse{User: u, Token: token})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, apperr.Unauthorized, "authentication required")
		return
	}
	u, err := h.svc.GetByID(r.Context(), p.ID)
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		respondFromError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}
