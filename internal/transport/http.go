package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cheapshop/backend/internal/auth"
	"github.com/cheapshop/backend/internal/handler"
)

// NewRouter mounts the HTTP surface. Route protection lives here: the
// handlers themselves only read the principal from the context.
func NewRouter(
	orders *handler.OrderHandler,
	products *handler.ProductHandler,
	users *handler.UserHandler,
	authMgr *auth.Manager,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(authMgr.RequireAdmin).Get("/", orders.List)
			r.With(authMgr.Require).Get("/mine", orders.ListMine)
			r.With(authMgr.Optional).Post("/", orders.Create)
			r.With(authMgr.RequireAdmin).Put("/{id}/state", orders.UpdateState)
			r.With(authMgr.RequireAdmin).Put("/{id}/items/remove", orders.RemoveItem)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)
			r.With(authMgr.RequireAdmin).Post("/", products.Create)
			r.With(authMgr.RequireAdmin).Put("/{id}", products.Update)
			r.With(authMgr.RequireAdmin).Delete("/{id}", products.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)
			r.With(authMgr.Require).Get("/profile", users.Profile)
			r.With(authMgr.RequireAdmin).Get("/", users.List)
		})
	})

	return r
}
