package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/karvix-api/internal/application/order"
	"github.com/karvix-api/internal/application/otp"
	"github.com/karvix-api/internal/application/session"
	"github.com/karvix-api/internal/application/user"
	"github.com/karvix-api/internal/config"
	"github.com/karvix-api/internal/domain"
	"github.com/karvix-api/internal/transport/http/handler"
	appmiddleware "github.com/karvix-api/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds background
// work started by middleware, such as the rate limiter's sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// One request per second sustained, bursts of 60, per client IP.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(1), 60, ctx.Done())
	cached := appmiddleware.Cache(deps.KV, cfg.CacheTTL)

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:          deps.KV,
		Mailer:         deps.Mailer,
		Metrics:        deps.Metrics,
		Length:         cfg.OTP.Length,
		Expiry:         cfg.OTP.Expiry,
		VerifiedExpiry: cfg.OTP.VerifiedExpiry,
		SupportURL:     cfg.SupportURL,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo: deps.UserRepo,
		Verifier: otpSvc,
		Sessions: sessionSvc,
		Images:   deps.Objects,
	})
	orderSvc := order.NewService(order.ServiceDeps{
		OrderRepo: deps.OrderRepo,
		UserRepo:  deps.UserRepo,
		SMS:       deps.SMSSender,
		Metrics:   deps.Metrics,
	})

	checks := map[string]handler.Pinger{}
	if deps.KV != nil {
		checks["redis"] = deps.KV
	}
	healthH := handler.NewHealthHandler(checks)
	otpH := handler.NewOTPHandler(otpSvc, !cfg.IsProduction())
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	orderH := handler.NewOrderHandler(orderSvc)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/send-otp", otpH.Send)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", otpH.Verify)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(cached).Get("/brokers", userH.ListBrokers)
		r.With(cached).Get("/users/workers/all", userH.ListWorkers)
		r.With(cached).Get("/users/search", userH.SearchWorkers)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Put("/users/me", userH.UpdateMe)
			r.Post("/users/me/profile-image", userH.UploadProfileImage)
			r.Get("/users/{id}", userH.Get)

			r.Get("/orders", orderH.ListMine)
			r.Get("/orders/{id}", orderH.Get)
			r.Put("/orders/{id}/status", orderH.UpdateStatus)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleCustomer))
				r.Post("/orders", orderH.Create)
				r.Post("/orders/{id}/review", orderH.AddReview)
			})

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleBroker))
				r.Get("/brokers/me/workers", userH.ListMyWorkers)
				r.Put("/orders/{id}/assign", orderH.AssignWorker)
			})
		})
	})

	return r
}
