package httpapi

import (
	"net/http"

	"escala_notifier/internal/infra/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	CronSecret         string
	JWTVerifier        *auth.Verifier // nil disables the manual endpoint
	ManualTriggerRoles []string
	CORSAllowedOrigins []string
}

func NewRouter(cfg RouterConfig, h *ReminderHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.CronSecret != "" {
		r.Route("/api/cron/escalas-lembretes", func(r chi.Router) {
			r.Use(auth.RequireSecret(cfg.CronSecret))
			r.Get("/", h.Cron)
			r.Post("/", h.Cron)
		})
	}

	if cfg.JWTVerifier != nil {
		r.Route("/api/escalas/lembretes", func(r chi.Router) {
			if len(cfg.CORSAllowedOrigins) > 0 {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins: cfg.CORSAllowedOrigins,
					AllowedMethods: []string{"POST", "OPTIONS"},
					AllowedHeaders: []string{"Authorization", "Content-Type"},
					ExposedHeaders: []string{"X-Request-Id"},
					MaxAge:         300,
				}))
			}
			r.Use(auth.RequireRole(cfg.JWTVerifier, cfg.ManualTriggerRoles))
			r.Post("/", h.Manual)
		})
	}

	return r
}
