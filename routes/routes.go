package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/bolao-system/docs" // регистрирует swagger-спеку
	"github.com/Dosada05/bolao-system/handlers"
	"github.com/Dosada05/bolao-system/middleware"
	"github.com/Dosada05/bolao-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Contest   *handlers.ContestHandler
	Match     *handlers.MatchHandler
	Ticket    *handlers.TicketHandler
	Ranking   *handlers.RankingHandler
	Payment   *handlers.PaymentHandler
	Dashboard *handlers.DashboardHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// websocket живёт дольше любого таймаута запроса
	router.Get("/ws/contests/{contestID}/ranking", h.WebSocket.ServeRanking)

	router.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Post("/auth/login", h.Auth.Login)

		// Публичные маршруты
		r.Route("/contests", func(r chi.Router) {
			r.Get("/", h.Contest.List)
			r.Route("/{contestID}", func(r chi.Router) {
				r.Get("/", h.Contest.GetByID)
				r.Get("/matches", h.Match.ListByContest)
				r.Get("/ranking", h.Ranking.Contest)
				r.Get("/tickets", h.Ticket.GetByParticipant)
				r.With(middleware.OptionalAuthenticate(opts.JWTSecret)).Post("/tickets", h.Ticket.Submit)
			})
		})
		r.Get("/ranking/general", h.Ranking.General)
		r.Get("/payments/{paymentID}", h.Payment.Get)

		// PSP дописывает /pix к зарегистрированному URL вебхука
		r.Post("/webhooks/pix", h.Payment.Webhook)
		r.Post("/webhooks/pix/pix", h.Payment.Webhook)

		// Бэк-офис
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.JWTSecret))
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Post("/users", h.Auth.CreateUser)
			r.Get("/dashboard", h.Dashboard.Stats)

			r.Route("/contests", func(r chi.Router) {
				r.Post("/", h.Contest.Create)
				r.Route("/{contestID}", func(r chi.Router) {
					r.Put("/", h.Contest.Update)
					r.Patch("/status", h.Contest.UpdateStatus)
					r.Delete("/", h.Contest.Delete)
					r.Post("/matches", h.Match.Create)
				})
			})

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Put("/", h.Match.Update)
				r.Delete("/", h.Match.Delete)
				r.Put("/result", h.Match.SetResult)
				r.Delete("/result", h.Match.ClearResult)
				r.Post("/photo", h.Match.UploadPhoto)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", h.Payment.List)
				r.Post("/reconcile", h.Payment.Reconcile)
				r.Post("/recover", h.Payment.Recover)
				r.Post("/{paymentID}/check", h.Payment.Check)
				r.Post("/{paymentID}/status", h.Payment.ForceStatus)
			})

			r.Post("/rankings/{contestID}/refresh", h.Ranking.Refresh)
		})
	})
}
