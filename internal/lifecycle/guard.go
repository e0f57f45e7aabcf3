// Package lifecycle holds the booking state machine and the single table that
// decides who may move a booking along each edge.
package lifecycle

import (
	"fmt"
	"time"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
)

// Party restricts a grant to one side of the booking.
type Party int

const (
	AnyParty Party = iota
	RequesterParty
	OwnerParty
)

// DateGuard is a precondition on the booking's first day relative to today.
type DateGuard int

const (
	NoGuard DateGuard = iota
	// StartNotPast requires start date >= today.
	StartNotPast
	// StartInFuture requires start date > today.
	StartInFuture
)

type Grant struct {
	Role  accesscontrol.RoleName
	Party Party
}

type Edge struct {
	From   bookings.Status
	To     bookings.Status
	Grants []Grant
	Guard  DateGuard
	// AdminBypass lifts Guard for admin callers.
	AdminBypass bool
}

// Rules is the full transition matrix. Any (from, to) pair missing here is an
// invalid transition, including every move out of CANCELLED and COMPLETED.
var Rules = []Edge{
	{
		From:   bookings.StatusPending,
		To:     bookings.StatusConfirmed,
		Grants: []Grant{{accesscontrol.RoleOwner, OwnerParty}},
		Guard:  StartNotPast,
	},
	{
		From: bookings.StatusPending,
		To:   bookings.StatusCancelled,
		Grants: []Grant{
			{accesscontrol.RoleFarmer, RequesterParty},
			{accesscontrol.RoleOwner, OwnerParty},
			{accesscontrol.RoleAdmin, AnyParty},
		},
	},
	{
		From: bookings.StatusConfirmed,
		To:   bookings.StatusCancelled,
		Grants: []Grant{
			{accesscontrol.RoleFarmer, RequesterParty},
			{accesscontrol.RoleOwner, OwnerParty},
			{accesscontrol.RoleAdmin, AnyParty},
		},
		Guard:       StartInFuture,
		AdminBypass: true,
	},
	{
		From: bookings.StatusConfirmed,
		To:   bookings.StatusCompleted,
		Grants: []Grant{
			{accesscontrol.RoleOwner, OwnerParty},
			{accesscontrol.RoleAdmin, AnyParty},
		},
	},
	{
		From:   bookings.StatusPending,
		To:     bookings.StatusCompleted,
		Grants: []Grant{{accesscontrol.RoleAdmin, AnyParty}},
	},
}

type Guard struct {
	rules []Edge
}

func NewGuard() *Guard {
	return &Guard{rules: Rules}
}

func (g *Guard) edge(from, to bookings.Status) (Edge, bool) {
	for _, e := range g.rules {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Check decides whether caller may move b to target on the given day.
func (g *Guard) Check(b *bookings.Booking, target bookings.Status, caller accesscontrol.Caller, today time.Time) error {
	e, ok := g.edge(b.Status, target)
	if !ok {
		return &bookings.Error{
			Kind:      bookings.ErrInvalidTransition,
			BookingID: b.ID,
			Msg:       fmt.Sprintf("%s -> %s", b.Status, target),
		}
	}

	grant, ok := e.grantFor(caller.Role)
	if !ok {
		return &bookings.Error{
			Kind:      bookings.ErrForbidden,
			BookingID: b.ID,
			Msg:       fmt.Sprintf("role %q may not move %s -> %s", caller.Role, b.Status, target),
		}
	}
	if !partyMatches(grant.Party, b, caller) {
		return &bookings.Error{
			Kind:      bookings.ErrForbidden,
			BookingID: b.ID,
			Msg:       fmt.Sprintf("user %d is not a party to this booking", caller.ID),
		}
	}

	if e.AdminBypass && caller.IsAdmin() {
		return nil
	}
	if !e.Guard.holds(b.FirstDay(), bookings.Day(today)) {
		return &bookings.Error{
			Kind:      bookings.ErrPreconditionFailed,
			BookingID: b.ID,
			Period:    &b.Period,
			Msg:       fmt.Sprintf("%s -> %s requires %s (today %s)", b.Status, target, e.Guard, today.Format(time.DateOnly)),
		}
	}
	return nil
}

// Targets lists the statuses caller could move b to today.
func (g *Guard) Targets(b *bookings.Booking, caller accesscontrol.Caller, today time.Time) []bookings.Status {
	var out []bookings.Status
	for _, e := range g.rules {
		if e.From != b.Status {
			continue
		}
		if g.Check(b, e.To, caller, today) == nil {
			out = append(out, e.To)
		}
	}
	return out
}

// CanView reports whether caller may read b.
func CanView(b *bookings.Booking, caller accesscontrol.Caller) bool {
	return caller.IsAdmin() || caller.ID == b.RequesterID || caller.ID == b.OwnerID
}

func (e Edge) grantFor(role accesscontrol.RoleName) (Grant, bool) {
	for _, gr := range e.Grants {
		if gr.Role == role {
			return gr, true
		}
	}
	return Grant{}, false
}

func partyMatches(p Party, b *bookings.Booking, caller accesscontrol.Caller) bool {
	switch p {
	case RequesterParty:
		return caller.ID == b.RequesterID
	case OwnerParty:
		return caller.ID == b.OwnerID
	}
	return true
}

func (d DateGuard) holds(start, today time.Time) bool {
	switch d {
	case StartNotPast:
		return !start.Before(today)
	case StartInFuture:
		return start.After(today)
	}
	return true
}

func (d DateGuard) String() string {
	switch d {
	case StartNotPast:
		return "start date not in the past"
	case StartInFuture:
		return "start date in the future"
	}
	return "nothing"
}
