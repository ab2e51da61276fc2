package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Routes mounts metrics on metricsPath unless metrics is nil.
func Routes(h *Handler, metricsPath string, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// after RequestID
	r.Use(RequestLogger(h.log.With(zap.String("component", "http"))))

	r.Get("/health", h.Health)
	if metrics != nil {
		r.Method(http.MethodGet, metricsPath, metrics)
	}

	r.Route("/imports", func(r chi.Router) {
		r.Get("/types", h.ImportTypes)

		r.Group(func(r chi.Router) {
			r.Use(RequireRequester(h.opts.RequesterHeader))
			r.Post("/{entityType}", h.SubmitImport)
			r.Get("/{id}", h.GetImport)
			r.Get("/{id}/errors", h.ImportErrors)
			r.Get("/{id}/events", h.ImportEvents)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
