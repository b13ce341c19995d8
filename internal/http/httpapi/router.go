package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options configures the router beyond the handler container.
type Options struct {
	Logger         zerolog.Logger
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	AllowedOrigins []string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Post("/images/generate", app.ImagesGenerate)
		r.Post("/videos/generate", app.VideosGenerate)
		r.Get("/generations/status", app.GenerationStatus)
		r.Get("/generations", app.GenerationHistory)
		r.Get("/credits", app.Credits)
		r.Post("/credits/purchase", app.CreditsPurchase)
		r.Get("/events", app.Events)
	})

	return r
}
