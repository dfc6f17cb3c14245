package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/straye-as/minicrm/internal/config"
	"github.com/straye-as/minicrm/internal/http/handler"
	"github.com/straye-as/minicrm/internal/http/middleware"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Handlers groups the HTTP handlers the router mounts
type Handlers struct {
	Lead         *handler.LeadHandler
	Customer     *handler.CustomerHandler
	Offer        *handler.OfferHandler
	Invoice      *handler.InvoiceHandler
	Subscription *handler.SubscriptionHandler
	Project      *handler.ProjectHandler
	Admin        *handler.AdminHandler
}

type Router struct {
	cfg         *config.Config
	logger      *zap.Logger
	rateLimiter *middleware.RateLimiter
	handlers    Handlers
	checks      map[string]ReadinessCheck
}

func NewRouter(cfg *config.Config, logger *zap.Logger, rateLimiter *middleware.RateLimiter, handlers Handlers, checks map[string]ReadinessCheck) *Router {
	return &Router{
		cfg:         cfg,
		logger:      logger,
		rateLimiter: rateLimiter,
		handlers:    handlers,
		checks:      checks,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/ready", rt.ready)
	r.Handle("/metrics", promhttp.Handler())

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", h.Lead.List)
			r.Post("/", h.Lead.Create)
			r.Delete("/{index}", h.Lead.Delete)
			r.Post("/{index}/promote", h.Lead.Promote)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.Customer.List)
			r.Get("/export", h.Admin.ExportCustomers)
			r.Post("/highlight", h.Customer.TakeHighlight)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Customer.GetByID)
				r.Patch("/", h.Customer.Update)
				r.Get("/history", h.Customer.History)
				r.Post("/history", h.Customer.AddHistory)

				r.Post("/offers", h.Offer.Create)
				r.Post("/offers/{offerId}/accept", h.Offer.Accept)
				r.Get("/offers/{offerId}/invoices", h.Offer.Invoices)
				r.Post("/offers/{offerId}/project", h.Offer.CreateProject)

				r.Post("/invoices", h.Invoice.Create)
				r.Put("/invoices/{invoiceId}/status", h.Invoice.SetStatus)

				r.Get("/subscriptions", h.Subscription.List)
				r.Post("/subscriptions", h.Subscription.Create)
				r.Patch("/subscriptions/{subId}", h.Subscription.Update)
				r.Post("/subscriptions/{subId}/accept", h.Subscription.Accept)
				r.Post("/subscriptions/{subId}/invoice", h.Subscription.Invoice)

				r.Post("/projects", h.Project.Create)
				r.Patch("/projects/{projectId}", h.Project.Update)
				r.Post("/projects/{projectId}/milestones", h.Project.AddMilestone)
				r.Put("/projects/{projectId}/milestones/{milestoneId}", h.Project.SetMilestoneDone)
				r.Post("/projects/{projectId}/files", h.Project.AddFile)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset", h.Admin.Reset)
			r.Post("/normalize", h.Admin.Normalize)
			r.Post("/billing/run", h.Admin.BillDue)
			r.Get("/exports/{filename}", h.Admin.DownloadExport)
		})
	})

	return r
}

// ready runs every readiness check and answers 503 if any fails
func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(rt.checks))
	for name := range rt.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]interface{}, len(names))
	allHealthy := true
	for _, name := range names {
		if err := rt.checks[name](ctx); err != nil {
			rt.logger.Error("readiness check failed", zap.String("check", name), zap.Error(err))
			checks[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
			continue
		}
		checks[name] = map[string]interface{}{"status": "healthy"}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
