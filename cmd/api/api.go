package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrirent/internal/auth"
	"agrirent/internal/availability"
	"agrirent/internal/domain/pushtokens"
	"agrirent/internal/ratelimiter"
	"agrirent/internal/refs"
	"agrirent/internal/reservation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	engine        *reservation.Engine
	pushTokens    pushtokens.Store
	refs          *refs.Encoder
	logger        *zap.SugaredLogger
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	storage     string
	db          dbConfig
	auth        authConfig
	booking     bookingConfig
	push        pushConfig
	hashidsSalt string
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	secret        string
	refreshSecret string
	aud           string
	iss           string
}
type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type bookingConfig struct {
	policy   availability.Policy
	location *time.Location
	// expiryCron is a robfig/cron spec; empty disables the expiry job.
	expiryCron  string
	expiryBatch int
}

type pushConfig struct {
	accessToken string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", app.createBookingHandler)
				r.Get("/", app.listMyBookingsHandler)
				r.Get("/summary", app.bookingSummaryHandler)

				r.Route("/{bookingRef}", func(r chi.Router) {
					r.Get("/", app.getBookingHandler)
					r.Patch("/status", app.updateBookingStatusHandler)
					r.Post("/approve", app.approveBookingHandler)
					r.Post("/reject", app.rejectBookingHandler)
					r.Post("/cancel", app.cancelBookingHandler)
					r.Post("/complete", app.completeBookingHandler)
				})
			})

			r.Route("/owner", func(r chi.Router) {
				r.Get("/bookings", app.listOwnerBookingsHandler)
				r.Get("/earnings", app.ownerEarningsHandler)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", app.adminOverviewHandler)
				r.Get("/bookings", app.listAllBookingsHandler)
				r.Get("/bookings/pending", app.listPendingBookingsHandler)
			})

			r.Get("/equipment/{equipmentID}/bookings", app.listEquipmentBookingsHandler)
			r.Get("/equipment/{equipmentID}/availability", app.checkAvailabilityHandler)

			r.Route("/push-tokens", func(r chi.Router) {
				r.Post("/", app.savePushTokenHandler)
				r.Delete("/", app.removePushTokenHandler)
				r.Post("/prune", app.pruneStaleTokensHandler)
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env, "store", app.config.storage)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
