// Package router assembles the HTTP API: auth endpoints, the item CRUD
// surface, and the middleware stack shared by the server binary and the
// end-to-end tests.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mzurek/zakupy/internal/auth"
	"github.com/mzurek/zakupy/internal/items"
	"github.com/mzurek/zakupy/internal/middleware"
)

// New builds the chi router. allowedOrigin is the single origin the
// browser client is served from; credentials are enabled so the
// session cookie travels with cross-origin requests.
func New(authHandler *auth.Handler, itemHandler *items.Handler, sessions auth.Sessions, allowedOrigin string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth(sessions)).Get("/me", authHandler.Me)

		r.Route("/items", func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessions))
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Add)
			r.Put("/", itemHandler.Put)
			r.Delete("/", itemHandler.Delete)
		})
	})

	return r
}
