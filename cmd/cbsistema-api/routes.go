package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cbsistema/cbsistema-backend/internal/auth/middleware"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/handler"
	userhandler "github.com/cbsistema/cbsistema-backend/internal/user/handler"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/ratelimit"
)

type handlers struct {
	users         *userhandler.UserHandler
	products      *handler.ProductHandler
	warehouses    *handler.WarehouseHandler
	stock         *handler.StockHandler
	movements     *handler.MovementHandler
	orders        *handler.OrderHandler
	notifications *handler.NotificationHandler
	reports       *handler.ReportHandler
	audit         *handler.AuditHandler
	alerts        *handler.AlertHandler
	auth          *middleware.Authenticator
	limiter       *ratelimit.Limiter
}

func newRouter(cfg *config.Config, log *logger.Logger, h *handlers, health http.HandlerFunc) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.limiter.Middleware)

		r.Post("/users/login", h.users.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Authenticate)
			r.Use(h.audit.Record)
			admin := middleware.RequireAdmin

			r.Post("/users/logout", h.users.Logout)
			r.Get("/users/me", h.users.Me)

			r.With(admin).Route("/users", func(r chi.Router) {
				r.Get("/", h.users.List)
				r.Post("/", h.users.Create)
				r.Get("/{id}", h.users.Get)
				r.Put("/{id}", h.users.Update)
				r.Delete("/{id}", h.users.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin)
				r.Post("/reset-password", h.users.ResetPassword)
				r.Get("/reports", h.reports.AdminSummary)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.products.List)
				r.Get("/search", h.products.Search)
				r.Get("/{id}", h.products.Get)
				r.With(admin).Post("/", h.products.Create)
				r.With(admin).Put("/{id}", h.products.Update)
				r.With(admin).Delete("/{id}", h.products.Delete)
			})

			r.Route("/warehouses", func(r chi.Router) {
				r.Use(admin)
				r.Get("/{id}/products", h.warehouses.ListProducts)
				r.Post("/stock", h.warehouses.AddStock)
				r.Delete("/stock", h.warehouses.RemoveStock)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.warehouses.ListCategories)
				r.With(admin).Post("/", h.warehouses.CreateCategory)
				r.With(admin).Put("/{id}", h.warehouses.UpdateCategory)
				r.With(admin).Delete("/{id}", h.warehouses.DeleteCategory)
			})

			r.Route("/batches", func(r chi.Router) {
				r.Get("/", h.stock.ListBatches)
				r.Get("/{id}", h.stock.GetBatch)
				r.With(admin).Post("/", h.stock.ReceiveBatch)
				r.With(admin).Delete("/{id}", h.stock.RemoveBatch)
			})

			r.Route("/daily-register", func(r chi.Router) {
				r.Get("/", h.stock.ListRegister)
				r.Post("/", h.stock.SubmitRegister)
				r.Put("/{id}", h.stock.UpdateRegister)
				r.Delete("/{id}", h.stock.DeleteRegister)
			})

			r.Route("/movements", func(r chi.Router) {
				r.Get("/", h.movements.List)
				r.Post("/", h.movements.Create)
				r.Delete("/{id}", h.movements.Delete)
			})

			r.Get("/physical-counts", h.movements.ListCounts)
			r.Post("/physical-counts", h.movements.RecordCount)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.orders.List)
				r.Post("/", h.orders.Create)
				r.With(admin).Post("/pending-auto-trigger", h.orders.FlagStale)
				r.With(admin).Put("/{id}", h.orders.Update)
				r.With(admin).Delete("/{id}", h.orders.Delete)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.notifications.List)
				r.Get("/mine", h.notifications.Mine)
				r.Post("/", h.notifications.Create)
				r.Put("/{id}/read", h.notifications.MarkRead)
				r.Delete("/{id}", h.notifications.Delete)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(admin)
				r.Get("/inventory-value", h.reports.InventoryValue)
				r.Get("/near-expiry", h.reports.NearExpiry)
				r.Get("/movements", h.reports.Movements)
			})

			r.With(admin).Get("/logs", h.audit.List)
			r.With(admin).Delete("/logs", h.audit.Clear)

			r.With(admin).Post("/alerts/run", h.alerts.Run)
		})
	})

	return r
}
