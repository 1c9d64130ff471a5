package http

import (
	"errors"
	"fmt"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/auth"
	"github.com/phonegate/portal/internal/http/handlers"
	"github.com/phonegate/portal/internal/middleware"
	"github.com/phonegate/portal/internal/session"
	"github.com/phonegate/portal/internal/toast"
)

// ErrMissingDependency is returned when the router is assembled without a
// required collaborator.
var ErrMissingDependency = errors.New("http: missing dependency")

// Deps are the collaborators of the router.
type Deps struct {
	AuthService  *auth.Service
	JWTService   *auth.JWTService
	Sessions     *session.Factory
	Toasts       *toast.Board
	LoginLimiter *middleware.RateLimiter
	Health       *handlers.HealthHandler
	Logger       *zap.Logger
	CookieSecure bool
}

func (d Deps) validate() error {
	switch {
	case d.AuthService == nil:
		return fmt.Errorf("%w: auth service", ErrMissingDependency)
	case d.JWTService == nil:
		return fmt.Errorf("%w: jwt service", ErrMissingDependency)
	case d.Sessions == nil:
		return fmt.Errorf("%w: session factory", ErrMissingDependency)
	case d.Toasts == nil:
		return fmt.Errorf("%w: toast board", ErrMissingDependency)
	case d.LoginLimiter == nil:
		return fmt.Errorf("%w: login rate limiter", ErrMissingDependency)
	case d.Logger == nil:
		return fmt.Errorf("%w: logger", ErrMissingDependency)
	}
	return nil
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(deps Deps) (*chi.Mux, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	renderer, err := handlers.NewRenderer(deps.Logger)
	if err != nil {
		return nil, err
	}
	health := deps.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil, deps.Logger)
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Toasts, renderer, deps.Logger)
	dashboardHandler := handlers.NewDashboardHandler(deps.Toasts, renderer, deps.Logger)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", health.ServeHTTP)

	// Browser routes carry a client identity and its session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientIdentity(deps.JWTService, deps.CookieSecure, deps.Logger))
		r.Use(middleware.Session(deps.Sessions))

		r.Get("/", authHandler.HandleRoot)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/", authHandler.HandleLoginPage)
			r.With(middleware.RateLimitMiddleware(deps.LoginLimiter, middleware.GetIPKey)).
				Post("/", authHandler.HandleLogin)
			r.Post("/phone", authHandler.HandlePhoneFeedback)
		})

		r.Get("/dashboard", dashboardHandler.HandleDashboard)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/toast/dismiss", authHandler.HandleDismissToast)
	})

	return r, nil
}
