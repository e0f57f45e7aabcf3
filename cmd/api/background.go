package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// pushTokenMaxAge is how long a device may stay silent before its token is
// dropped (70 days).
const pushTokenMaxAge = 1680 * time.Hour

// scheduleJobs starts the cron scheduler. The returned func stops it and
// waits for running jobs.
func (app *application) scheduleJobs() (func(), error) {
	c := cron.New()

	if spec := app.config.booking.expiryCron; spec != "" {
		if _, err := c.AddFunc(spec, app.expirePendingBookings); err != nil {
			return nil, fmt.Errorf("invalid EXPIRY_CRON %q: %w", spec, err)
		}
		app.logger.Infow("pending booking expiry scheduled", "spec", spec)
	}

	if _, err := c.AddFunc("@daily", app.pruneStalePushTokens); err != nil {
		return nil, err
	}

	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

// expirePendingBookings cancels requests that were never confirmed before
// their first day.
func (app *application) expirePendingBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := app.engine.ExpirePending(ctx, app.config.booking.expiryBatch)
	if err != nil {
		app.logger.Errorw("expiring pending bookings", "expired", n, "error", err)
		return
	}
	if n > 0 {
		app.logger.Infow("expired pending bookings", "count", n)
	}
}

func (app *application) pruneStalePushTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := app.pushTokens.PruneStale(ctx, pushTokenMaxAge); err != nil {
		app.logger.Errorw("pruning stale push tokens", "error", err)
	}
}
