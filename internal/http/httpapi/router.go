package httpapi

import (
	"net/http"
	"time"

	"server/internal/http/handlers"
	appmw "server/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		appmw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		appmw.Logger(app.Logger),
		appmw.I18N("en", app.Country),
		appmw.CORS(app.Config.AllowedOrigins),
		appmw.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	// Collaborator callbacks authenticate themselves (per-job token, HMAC
	// signature), not via user JWTs.
	r.Post("/v1/predictions/webhook", app.InferenceWebhook)
	r.Post("/v1/payments/webhook", app.PaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(appmw.AuthJWT(app.Config.JWTSecret))

		r.Post("/v1/predictions", app.PredictionsCreate)
		r.Get("/v1/predictions/{prediction_id}", app.PredictionStatus)
		r.Get("/v1/credits", app.CreditsSummary)
		r.Post("/v1/checkout", app.CheckoutCreate)
		r.Get("/v1/billing/portal", app.BillingPortal)
	})

	return r
}
