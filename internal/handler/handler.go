package handler

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"fashnary/api/internal/service"
	"fashnary/api/internal/service/tryon"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Handler struct {
	router   *chi.Mux
	catalog  *service.CatalogService
	tryon    *tryon.Pipeline
	logger   *slog.Logger
	validate *validator.Validate
	opts     Options
}

func NewHandler(catalog *service.CatalogService, pipeline *tryon.Pipeline, logger *slog.Logger, opts Options) *Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 20 << 20
	}

	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(RequestLogging(logger))
	router.Use(Metrics)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         3600,
	}))

	h := &Handler{
		router:   router,
		catalog:  catalog,
		tryon:    pipeline,
		logger:   logger,
		validate: newValidator(),
		opts:     opts,
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.router.Get("/health", h.HealthCheck)
	h.router.Handle("/metrics", promhttp.Handler())

	h.router.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/sort/stockouts", h.Stockouts)
		r.Get("/display", h.ListProductDisplays)
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/display", h.GetProductDisplay)
	})
	h.router.Get("/metadata", h.ProductMetadata)

	h.router.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/all_ids", h.UserIDs)
		r.Get("/metadata", h.UserMetadata)
		r.Get("/{id}", h.GetUser)
		r.Get("/{id}/display", h.GetUserDisplay)
		r.Get("/{id}/purchases", h.UserPurchases)
		r.Get("/{id}/cart", h.UserCart)
		r.Get("/{id}/style_preferences", h.UserStylePreferences)
	})

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/tryon/generate", h.GenerateTryOn)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
