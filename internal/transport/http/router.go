package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssdl-lang/ssdlc/internal/port"
)

// NewRouter wires the HTTP surface. The /v1 group sits behind the API
// key middleware; health and metrics stay open.
func NewRouter(h *Handler, hub *Hub, keys port.KeyStore, corsOrigins []string, requireKey bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(APIKeyMiddleware(keys, requireKey))

		r.Post("/compile", h.CompileDescriptor)
		r.Post("/validate", h.ValidateDescriptor)
		r.Get("/descriptors", h.ListDescriptors)
		r.Get("/descriptors/{name}", h.GetDescriptor)
		r.Get("/descriptors/{name}/ir", h.GetDescriptorIR)
		r.Delete("/descriptors/{name}", h.DeleteDescriptor)
		r.Get("/watch", hub.Watch)
	})

	return r
}
