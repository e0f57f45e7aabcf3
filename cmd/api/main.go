package main

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"agrirent/internal/auth"
	"agrirent/internal/availability"
	"agrirent/internal/db"
	"agrirent/internal/domain/equipment"
	"agrirent/internal/domain/storage"
	"agrirent/internal/logging"
	"agrirent/internal/notifications"
	"agrirent/internal/ratelimiter"
	"agrirent/internal/refs"
	"agrirent/internal/reservation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig(logger *zap.SugaredLogger) ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil && parsedVal > 0 {
			requestsPerTimeFrame = parsedVal
		} else {
			logger.Warnw("invalid RATELIMITER_REQUESTS_COUNT, using default", "value", val, "default", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			logger.Warnw("invalid RATE_LIMITER_ENABLED, using default", "value", val, "default", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// loadEquipmentSeed reads a JSON array of equipment for the in-memory catalog.
func loadEquipmentSeed(path string) ([]equipment.Equipment, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []equipment.Equipment
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

var version = "0.4.0"

//	@title			agrirent API
//	@description	Booking engine for the agrirent farm-equipment marketplace.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	env := getEnv("ENV", "development")
	logger := logging.New(logging.LevelFor(env))
	defer logger.Sync()

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil {
		logger.Fatalw("invalid DB_MAX_CONNS", "error", err)
	}

	policy, err := availability.ParsePolicy(os.Getenv("OVERLAP_POLICY"))
	if err != nil {
		logger.Fatalw("invalid OVERLAP_POLICY", "error", err)
	}

	loc, err := time.LoadLocation(getEnv("BOOKING_TIMEZONE", "UTC"))
	if err != nil {
		logger.Fatalw("invalid BOOKING_TIMEZONE", "error", err)
	}

	cfg := config{
		addr:    getEnv("ADDR", ":8080"),
		env:     env,
		storage: getEnv("STORE", "postgres"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(maxConns),
			maxIdleTime: getEnv("DB_MAX_IDLE_TIME", "15m"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:        os.Getenv("AUTH_TOKEN_SECRET"),
				refreshSecret: os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				aud:           getEnv("AUTH_TOKEN_AUDIENCE", "agrirent"),
				iss:           getEnv("AUTH_TOKEN_ISSUER", "agrirent"),
			},
		},
		booking: bookingConfig{
			policy:      policy,
			location:    loc,
			expiryCron:  os.Getenv("EXPIRY_CRON"),
			expiryBatch: 100,
		},
		push: pushConfig{
			accessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
		},
		hashidsSalt: os.Getenv("HASHIDS_SALT"),
		rateLimiter: LoadRateLimiterConfig(logger),
	}

	var (
		stores *storage.Container
		pool   *pgxpool.Pool
	)
	switch cfg.storage {
	case "memory":
		items, err := loadEquipmentSeed(os.Getenv("EQUIPMENT_SEED"))
		if err != nil {
			logger.Fatalw("loading equipment seed", "error", err)
		}
		stores = storage.NewMemoryContainer(items...)
		logger.Warnw("using in-memory storage, data is lost on restart", "equipment", len(items))
	default:
		pool, err = db.New(context.Background(), db.Config{
			Addr:        cfg.db.addr,
			MaxConns:    cfg.db.maxConns,
			MaxIdleTime: cfg.db.maxIdleTime,
		})
		if err != nil {
			logger.Fatal(err)
		}
		defer pool.Close()
		logger.Info("database connection pool established")

		stores = storage.NewContainer(pool)
	}

	encoder, err := refs.New(cfg.hashidsSalt, refs.DefaultMinLength)
	if err != nil {
		logger.Fatal(err)
	}

	notifier := notifications.NewBookingNotifier(
		notifications.NewExpoAdapter(notifications.NewExpoClient(cfg.push.accessToken)),
		stores.PushTokens,
		encoder.Encode,
		logger,
	)

	engine := reservation.New(stores.Bookings, stores.Equipment, notifier, logger, reservation.Config{
		Policy:      cfg.booking.policy,
		Location:    cfg.booking.location,
		AsyncNotify: true,
	})

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.aud,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		engine:        engine,
		pushTokens:    stores.PushTokens,
		refs:          encoder,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.NewString("overlap_policy").Set(cfg.booking.policy.String())
	if pool != nil {
		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]any{
				"total_conns":    s.TotalConns(),
				"idle_conns":     s.IdleConns(),
				"acquired_conns": s.AcquiredConns(),
				"max_conns":      s.MaxConns(),
			}
		}))
	}
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	stop, err := app.scheduleJobs()
	if err != nil {
		logger.Fatal(err)
	}

	mux := app.mount()

	err = app.run(mux)
	stop()
	engine.Wait()
	if err != nil {
		logger.Fatal(err)
	}
}
