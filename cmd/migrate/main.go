package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	"agrirent/internal/db"
	"agrirent/internal/logging"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	logger := logging.New(logging.LevelFor(os.Getenv("ENV")))
	defer logger.Sync()

	addr := os.Getenv("DB_ADDR")
	if addr == "" {
		logger.Fatal("DB_ADDR is required")
	}

	conn, err := sql.Open("postgres", addr)
	if err != nil {
		logger.Fatalw("open database", "error", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		logger.Fatalw("ping database", "error", err)
	}

	if *down {
		if err := db.Rollback(ctx, conn, logger); err != nil {
			logger.Fatalw("rollback", "error", err)
		}
		return
	}

	n, err := db.Migrate(ctx, conn, logger)
	if err != nil {
		logger.Fatalw("migrate", "applied", n, "error", err)
	}
	logger.Infow("database is up to date", "applied", n)
}
