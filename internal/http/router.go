package http

import (
	"net/http"

	"blogd/internal/apperr"
	"blogd/internal/auth"
	"blogd/internal/config"
	"blogd/internal/http/handler"
	mw "blogd/internal/http/middleware"
	"blogd/internal/post"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, apperr.NotFound("resource not found, check the URL and method"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, apperr.NotFound("resource not found, check the URL and method"))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	users := &auth.Store{DB: db}

	ah := &handler.AuthHandler{Users: users, JWT: jwtSvc}
	r.Post("/signup", ah.SignUp)
	r.Post("/signin", ah.SignIn)

	me := &handler.MeHandler{Users: users}
	r.With(auth.RequireAuth(jwtSvc, handler.WriteError)).Get("/users/me", me.Me)

	postSvc := &post.Service{DB: db}
	ph := &handler.PostHandler{Svc: postSvc}

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", ph.ListPublic)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtSvc, handler.WriteError))

			r.Get("/deferred", ph.ListDeferred)
			r.Post("/", ph.Create)
			r.Patch("/{postId}", ph.Update)
			r.Delete("/{postId}", ph.Delete)
		})
	})

	return r
}
