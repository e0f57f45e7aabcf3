package main

import (
	"net/http"

	"agrirent/internal/params"
)

// AdminOverview godoc
//
//	@Summary		Admin booking overview
//	@Description	Booking totals by status, revenue over CONFIRMED and COMPLETED bookings, and the newest bookings.
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	AdminOverviewResponse
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard [get]
func (app *application) adminOverviewHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	out, err := app.engine.AdminOverview(r.Context(), caller)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	recent := make([]BookingResponse, 0, len(out.RecentBookings))
	for i := range out.RecentBookings {
		recent = append(recent, app.bookingResponse(&out.RecentBookings[i], caller))
	}
	resp := AdminOverviewResponse{
		AdminOverview:  out,
		TotalRevenue:   money(out.TotalRevenue),
		RecentBookings: recent,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListAllBookings godoc
//
//	@Summary		List bookings (admin)
//	@Description	Every booking on the platform, newest first. Supports an optional status filter and pagination.
//	@Tags			admin
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(PENDING,CONFIRMED,CANCELLED,COMPLETED)
//	@Param			page	query		int		false	"Page number"		default(1)
//	@Param			limit	query		int		false	"Items per page"	default(15)
//	@Success		200		{object}	BookingListResponse
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings [get]
func (app *application) listAllBookingsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	filter, p, err := params.BookingFilter(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, err := app.engine.ListAllBookings(r.Context(), caller, filter)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingList(items, p, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListPendingBookings godoc
//
//	@Summary		Bookings awaiting a decision (admin)
//	@Tags			admin
//	@Produce		json
//	@Param			page	query		int	false	"Page number"		default(1)
//	@Param			limit	query		int	false	"Items per page"	default(15)
//	@Success		200		{object}	BookingListResponse
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/pending [get]
func (app *application) listPendingBookingsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	filter, p, err := params.BookingFilter(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, err := app.engine.ListPendingBookings(r.Context(), caller, filter)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingList(items, p, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}
