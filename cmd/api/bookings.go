package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
	"agrirent/internal/params"
	"agrirent/internal/pricing"
	"agrirent/internal/reservation"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// CreateBookingPayload is the body of POST /v1/bookings. Dates are
// YYYY-MM-DD and times HH:MM. Hourly rentals send start_date with
// start_time and end_time; daily and weekly rentals send start_date and
// end_date.
type CreateBookingPayload struct {
	EquipmentID int64  `json:"equipment_id" validate:"required,gt=0"`
	RentalType  string `json:"rental_type" validate:"omitempty,rentaltype"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Notes       string `json:"notes" validate:"max=1000"`
}

func (p CreateBookingPayload) request() reservation.CreateRequest {
	return reservation.CreateRequest{
		EquipmentID: p.EquipmentID,
		RentalType:  p.RentalType,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Notes:       p.Notes,
	}
}

type UpdateBookingStatusPayload struct {
	Status string `json:"status" validate:"required,bookingstatus"`
}

// BookingResponse is a booking as shown to one caller: ref is the public
// reference used in URLs and actions lists the statuses the caller may move
// the booking to. Money is rendered with two decimals and shadows the
// embedded decimal fields.
type BookingResponse struct {
	Ref string `json:"ref"`
	bookings.Booking
	Rate    string            `json:"unit_rate"`
	Amount  string            `json:"total_amount"`
	Actions []bookings.Status `json:"actions"`
}

type EarningsResponse struct {
	*reservation.Earnings
	Total string `json:"total_earnings"`
}

type AdminOverviewResponse struct {
	*reservation.AdminOverview
	TotalRevenue   string            `json:"total_revenue"`
	RecentBookings []BookingResponse `json:"recent_bookings"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(pricing.Scale)
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Pagination params.Pagination `json:"pagination"`
}

func (app *application) bookingResponse(b *bookings.Booking, caller accesscontrol.Caller) BookingResponse {
	actions := app.engine.Actions(b, caller)
	if actions == nil {
		actions = []bookings.Status{}
	}
	return BookingResponse{
		Ref:     app.refs.Encode(b.ID),
		Booking: *b,
		Rate:    money(b.UnitRate),
		Amount:  money(b.TotalAmount),
		Actions: actions,
	}
}

func (app *application) bookingList(items []bookings.Booking, p params.Pagination, caller accesscontrol.Caller) BookingListResponse {
	items = params.Trim(&p, items)
	out := make([]BookingResponse, 0, len(items))
	for i := range items {
		out = append(out, app.bookingResponse(&items[i], caller))
	}
	return BookingListResponse{Bookings: out, Pagination: p}
}

func (app *application) mustCaller(w http.ResponseWriter, r *http.Request) (accesscontrol.Caller, bool) {
	caller, ok := getCallerFromContext(r)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
	}
	return caller, ok
}

func (app *application) bookingIDFromPath(r *http.Request) (int64, error) {
	return app.refs.Decode(chi.URLParam(r, "bookingRef"))
}

// CreateBooking godoc
//
//	@Summary		Request a booking
//	@Description	Prices the rental from the equipment's rate card and reserves the slot as PENDING. Hourly rentals send start_date with start_time and end_time; daily and weekly rentals send start_date and end_date.
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateBookingPayload	true	"Booking request"
//	@Success		201		{object}	BookingResponse
//	@Failure		400		{object}	error	"Invalid input"
//	@Failure		403		{object}	error	"Owners cannot book their own equipment"
//	@Failure		404		{object}	error	"Equipment not found"
//	@Failure		409		{object}	error	"Time slot is already booked"
//	@Failure		422		{object}	error	"Outside the availability window"
//	@Failure		503		{object}	error	"Booking store unavailable"
//	@Security		ApiKeyAuth
//	@Router			/bookings [post]
func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.engine.CreateBooking(r.Context(), caller, payload.request())
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, app.bookingResponse(b, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListMyBookings godoc
//
//	@Summary		List my bookings
//	@Description	Bookings the caller requested, newest first.
//	@Tags			bookings
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(PENDING,CONFIRMED,CANCELLED,COMPLETED)
//	@Param			page	query		int		false	"Page number"		default(1)
//	@Param			limit	query		int		false	"Items per page"	default(15)
//	@Success		200		{object}	BookingListResponse
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/bookings [get]
func (app *application) listMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	filter, p, err := params.BookingFilter(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, err := app.engine.ListBookingsFor(r.Context(), caller.ID, filter)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingList(items, p, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// BookingSummary godoc
//
//	@Summary		Booking counts for the caller
//	@Tags			bookings
//	@Produce		json
//	@Success		200	{object}	reservation.Summary
//	@Security		ApiKeyAuth
//	@Router			/bookings/summary [get]
func (app *application) bookingSummaryHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	summary, err := app.engine.Summary(r.Context(), caller.ID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetBooking godoc
//
//	@Summary		Get a booking
//	@Description	Visible to the requester, the equipment owner and admins.
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingRef	path		string	true	"Booking reference"
//	@Success		200			{object}	BookingResponse
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingRef} [get]
func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	id, err := app.bookingIDFromPath(r)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	b, err := app.engine.GetBooking(r.Context(), caller, id)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingResponse(b, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}

type transitionFunc func(ctx context.Context, caller accesscontrol.Caller, bookingID int64) (*bookings.Booking, error)

func (app *application) transitionHandler(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := app.mustCaller(w, r)
		if !ok {
			return
		}

		id, err := app.bookingIDFromPath(r)
		if err != nil {
			app.notFoundResponse(w, r, err)
			return
		}

		b, err := fn(r.Context(), caller, id)
		if err != nil {
			app.bookingErrorResponse(w, r, err)
			return
		}

		if err := app.jsonResponse(w, http.StatusOK, app.bookingResponse(b, caller)); err != nil {
			app.internalServerError(w, r, err)
		}
	}
}

// ApproveBooking godoc
//
//	@Summary		Confirm a pending booking
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingRef	path		string	true	"Booking reference"
//	@Success		200			{object}	BookingResponse
//	@Failure		403			{object}	error
//	@Failure		409			{object}	error	"Invalid status transition"
//	@Failure		422			{object}	error	"Start date has passed"
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingRef}/approve [post]
func (app *application) approveBookingHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionHandler(app.engine.Confirm)(w, r)
}

// RejectBooking godoc
//
//	@Summary		Reject a pending booking
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingRef	path		string	true	"Booking reference"
//	@Success		200			{object}	BookingResponse
//	@Failure		403			{object}	error
//	@Failure		409			{object}	error	"Booking is no longer pending"
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingRef}/reject [post]
func (app *application) rejectBookingHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionHandler(app.engine.Reject)(w, r)
}

// CancelBooking godoc
//
//	@Summary		Cancel a booking
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingRef	path		string	true	"Booking reference"
//	@Success		200			{object}	BookingResponse
//	@Failure		403			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingRef}/cancel [post]
func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionHandler(app.engine.Cancel)(w, r)
}

// CompleteBooking godoc
//
//	@Summary		Mark a booking completed
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingRef	path		string	true	"Booking reference"
//	@Success		200			{object}	BookingResponse
//	@Failure		403			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingRef}/complete [post]
func (app *application) completeBookingHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionHandler(app.engine.Complete)(w, r)
}

// UpdateBookingStatus godoc
//
//	@Summary		Move a booking to a new status
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingRef	path		string						true	"Booking reference"
//	@Param			payload		body		UpdateBookingStatusPayload	true	"Target status"
//	@Success		200			{object}	BookingResponse
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Failure		409			{object}	error
//	@Failure		422			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingRef}/status [patch]
func (app *application) updateBookingStatusHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateBookingStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	target, err := bookings.ParseStatus(payload.Status)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	app.transitionHandler(func(ctx context.Context, c accesscontrol.Caller, id int64) (*bookings.Booking, error) {
		return app.engine.Transition(ctx, c, id, target)
	})(w, r)
}

// ListOwnerBookings godoc
//
//	@Summary		Bookings on the caller's equipment
//	@Description	Admins pass owner_id to look at any owner.
//	@Tags			owner
//	@Produce		json
//	@Param			owner_id	query		int		false	"Owner ID (admins only)"
//	@Param			status		query		string	false	"Filter by status"
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			limit		query		int		false	"Items per page"	default(15)
//	@Success		200			{object}	BookingListResponse
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/owner/bookings [get]
func (app *application) listOwnerBookingsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}
	ownerID, ok := app.ownerScope(w, r, caller)
	if !ok {
		return
	}

	filter, p, err := params.BookingFilter(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, err := app.engine.ListBookingsForOwner(r.Context(), ownerID, filter)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingList(items, p, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// OwnerEarnings godoc
//
//	@Summary		Owner earnings
//	@Description	Sums CONFIRMED and COMPLETED bookings over the owner's equipment.
//	@Tags			owner
//	@Produce		json
//	@Param			owner_id	query		int	false	"Owner ID (admins only)"
//	@Success		200			{object}	EarningsResponse
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/owner/earnings [get]
func (app *application) ownerEarningsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}
	ownerID, ok := app.ownerScope(w, r, caller)
	if !ok {
		return
	}

	earnings, err := app.engine.Earnings(r.Context(), ownerID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := EarningsResponse{Earnings: earnings, Total: money(earnings.Total)}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ownerScope resolves whose equipment an owner route looks at.
func (app *application) ownerScope(w http.ResponseWriter, r *http.Request, caller accesscontrol.Caller) (int64, bool) {
	switch caller.Role {
	case accesscontrol.RoleOwner:
		return caller.ID, true
	case accesscontrol.RoleAdmin:
		ownerID, err := strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
		if err != nil || ownerID <= 0 {
			app.badRequestResponse(w, r, errors.New("owner_id is required"))
			return 0, false
		}
		return ownerID, true
	default:
		app.forbiddenResponse(w, r, errors.New("owner routes need the owner role"))
		return 0, false
	}
}

// ListEquipmentBookings godoc
//
//	@Summary		Bookings of one piece of equipment
//	@Tags			equipment
//	@Produce		json
//	@Param			equipmentID	path		int		true	"Equipment ID"
//	@Param			status		query		string	false	"Filter by status"
//	@Success		200			{object}	BookingListResponse
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/equipment/{equipmentID}/bookings [get]
func (app *application) listEquipmentBookingsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := app.mustCaller(w, r)
	if !ok {
		return
	}

	equipmentID, err := strconv.ParseInt(chi.URLParam(r, "equipmentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	filter, p, err := params.BookingFilter(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, err := app.engine.ListBookingsForEquipment(r.Context(), caller, equipmentID, filter)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.bookingList(items, p, caller)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CheckAvailability godoc
//
//	@Summary		Is a slot free
//	@Description	Advisory only: creating the booking re-checks under the equipment lock.
//	@Tags			equipment
//	@Produce		json
//	@Param			equipmentID	path		int		true	"Equipment ID"
//	@Param			rental_type	query		string	false	"HOURLY, DAILY or WEEKLY"	default(DAILY)
//	@Param			start_date	query		string	true	"YYYY-MM-DD"
//	@Param			end_date	query		string	false	"YYYY-MM-DD"
//	@Param			start_time	query		string	false	"HH:MM"
//	@Param			end_time	query		string	false	"HH:MM"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/equipment/{equipmentID}/availability [get]
func (app *application) checkAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := strconv.ParseInt(chi.URLParam(r, "equipmentID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	q := r.URL.Query()
	req := reservation.CreateRequest{
		EquipmentID: equipmentID,
		RentalType:  q.Get("rental_type"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		StartTime:   q.Get("start_time"),
		EndTime:     q.Get("end_time"),
	}

	free, err := app.engine.IsFree(r.Context(), req)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := map[string]any{
		"equipment_id": equipmentID,
		"available":    free,
		"policy":       app.engine.Index().Policy().String(),
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
