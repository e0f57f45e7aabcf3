package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"agrirent/internal/domain/bookings"
	"agrirent/internal/refs"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+strconv.Itoa(secs)+"s")
}

// bookingErrorResponse maps engine failures onto HTTP statuses. The message
// of a typed booking error is safe to show; anything else is a 500.
func (app *application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, refs.ErrInvalidRef):
		app.notFoundResponse(w, r, err)
		return
	case errors.Is(err, bookings.ErrUnavailable):
		app.logger.Errorw("booking store unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusServiceUnavailable, "bookings are temporarily unavailable, try again")
		return
	case errors.Is(err, bookings.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, bookings.ErrResourceNotFound), errors.Is(err, bookings.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, bookings.ErrForbidden):
		app.forbiddenResponse(w, r, err)
		return
	case errors.Is(err, bookings.ErrSlotConflict), errors.Is(err, bookings.ErrInvalidTransition), errors.Is(err, bookings.ErrStatusChanged):
		status = http.StatusConflict
	case errors.Is(err, bookings.ErrOutOfAvailabilityWindow), errors.Is(err, bookings.ErrPreconditionFailed):
		status = http.StatusUnprocessableEntity
	default:
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("booking request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err.Error())
	writeJSONError(w, status, err.Error())
}
