package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	hospmiddleware "github.com/bitandsolution/stadium-hospitality-sub000/internal/middleware"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/checkin"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/guest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/telemetry"
)

// RouterOptions controls the construction of the HTTP router.
// Tokens, Guard, Checkin and Guests are required.
type RouterOptions struct {
	Tokens        *iam.TokenService
	Authenticator iam.Authenticator
	Guard         *iam.AccessGuard
	Checkin       *checkin.Service
	Guests        *guest.Service
	Users         repository.UserRepository
	Rooms         repository.RoomAssignmentRepository
	Log           logrus.FieldLogger
	Metrics       *telemetry.ServerMetrics
	CORSOptions   *cors.Options
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns the CORS policy for the given browser origins.
func DefaultCORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"If-Match",
			"X-Request-Id",
			"X-Stadium-ID",
		},
		ExposedHeaders:   []string{"ETag", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the API handlers mounted.
func NewRouter(opts RouterOptions) chi.Router {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	authenticator := opts.Authenticator
	if authenticator == nil {
		authenticator = iam.NewJWTAuthenticator(opts.Tokens)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hospmiddleware.RequestLogger(log, opts.Metrics))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions([]string{"http://localhost:5173"})
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	h := &handlers{
		tokens:  opts.Tokens,
		guard:   opts.Guard,
		checkin: opts.Checkin,
		guests:  opts.Guests,
		users:   opts.Users,
		rooms:   opts.Rooms,
		log:     log,
	}

	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)

	r.Group(func(r chi.Router) {
		r.Use(hospmiddleware.NewAuthnMiddleware(authenticator, log))
		r.Use(hospmiddleware.RequireAuthentication(log))

		r.Post("/auth/logout", h.logout)
		r.Get("/auth/me", h.me)

		r.Route("/guests/{id}", func(r chi.Router) {
			r.Get("/", h.getGuest)
			r.Put("/", h.updateGuest)
			r.Post("/checkin", h.checkinGuest)
			r.Post("/checkout", h.checkoutGuest)
			r.Get("/access-history", h.accessHistory)
		})

		r.With(
			hospmiddleware.RequireRole(opts.Guard, auth.RoleSuperAdmin, log),
			hospmiddleware.RequirePermission(opts.Guard, auth.BlacklistPurge, log),
		).Post("/admin/blacklist/purge", h.purgeBlacklist)
	})

	return r
}

// handlers binds HTTP endpoints to the services.
type handlers struct {
	tokens  *iam.TokenService
	guard   *iam.AccessGuard
	checkin *checkin.Service
	guests  *guest.Service
	users   repository.UserRepository
	rooms   repository.RoomAssignmentRepository
	log     logrus.FieldLogger
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.log, err)
}
