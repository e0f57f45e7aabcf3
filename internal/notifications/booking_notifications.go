package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
	"agrirent/internal/domain/pushtokens"

	"github.com/9ssi7/exponent"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoPushTokens = errors.New("no push tokens")
	ErrNotDelivered = errors.New("push gateway accepted no messages")
)

const (
	screenRequester = "farmer-bookings-screen"
	screenOwner     = "owner-bookings-screen"
)

// BookingNotifier pushes booking events to the devices of the other party.
type BookingNotifier struct {
	push   PushSender
	tokens pushtokens.Store
	ref    func(id int64) string
	logger *zap.SugaredLogger
}

// NewBookingNotifier builds a notifier. ref renders the public booking
// reference shown to users; nil falls back to the numeric id.
func NewBookingNotifier(push PushSender, tokens pushtokens.Store, ref func(int64) string, logger *zap.SugaredLogger) *BookingNotifier {
	if ref == nil {
		ref = func(id int64) string { return strconv.FormatInt(id, 10) }
	}
	return &BookingNotifier{push: push, tokens: tokens, ref: ref, logger: logger}
}

type recipient struct {
	userID int64
	screen string
}

// recipients picks who hears about ev. Whoever caused the event is skipped,
// unless it was an admin or the platform itself.
func recipients(ev bookings.Event) []recipient {
	b := ev.Booking
	requester := recipient{b.RequesterID, screenRequester}
	owner := recipient{b.OwnerID, screenOwner}

	var out []recipient
	switch ev.Kind {
	case bookings.EventCreated:
		out = []recipient{owner}
	case bookings.EventConfirmed, bookings.EventCompleted:
		out = []recipient{requester}
	case bookings.EventCancelled:
		out = []recipient{requester, owner}
	}

	kept := out[:0]
	for _, r := range out {
		if r.userID == ev.ActorID && ev.ActorID != accesscontrol.SystemUserID {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func content(ev bookings.Event, ref string) (string, string) {
	b := ev.Booking
	switch ev.Kind {
	case bookings.EventCreated:
		return "New Booking Request", fmt.Sprintf("Booking %s requested for %s", ref, b.Period)
	case bookings.EventConfirmed:
		return "Booking Confirmed", fmt.Sprintf("Your booking %s for %s has been confirmed", ref, b.Period)
	case bookings.EventCancelled:
		return "Booking Cancelled", fmt.Sprintf("Booking %s for %s has been cancelled", ref, b.Period)
	case bookings.EventCompleted:
		return "Booking Completed", fmt.Sprintf("Booking %s has been marked completed", ref)
	}
	return "Booking Update", fmt.Sprintf("Booking %s has an update", ref)
}

// Notify implements reservation.Notifier.
func (n *BookingNotifier) Notify(ctx context.Context, ev bookings.Event) error {
	targets := recipients(ev)
	if len(targets) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(targets))
	for _, r := range targets {
		ids = append(ids, r.userID)
	}
	tokensMap, err := n.tokens.TokensByUser(ctx, ids)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}

	ref := n.ref(ev.Booking.ID)
	title, body := content(ev, ref)
	eventID := uuid.NewString()

	var msgs []*exponent.Message
	for _, r := range targets {
		for _, t := range dedupe(tokensMap[r.userID]) {
			token := exponent.Token(t)
			msgs = append(msgs, &exponent.Message{
				To:    []*exponent.Token{&token},
				Title: title,
				Body:  body,
				// drives deep linking on tap
				Data: map[string]string{
					"type":      "booking",
					"event":     string(ev.Kind),
					"eventId":   eventID,
					"bookingId": ref,
					"status":    string(ev.Booking.Status),
					"screen":    r.screen,
				},
			})
		}
	}
	if len(msgs) == 0 {
		return ErrNoPushTokens
	}

	resp, err := n.push.Publish(ctx, msgs)
	if err != nil {
		return fmt.Errorf("publish booking %s notifications: %w", ev.Kind, err)
	}

	delivered, dead := tickets(msgs, resp)
	if len(dead) > 0 {
		if err := n.tokens.Forget(ctx, dead); err != nil {
			n.logger.Warnw("failed to forget dead push tokens", "tokens", len(dead), "error", err)
		} else {
			n.logger.Infow("forgot dead push tokens", "tokens", len(dead))
		}
	}
	if delivered == 0 {
		return fmt.Errorf("%w: booking %s event %s", ErrNotDelivered, ref, ev.Kind)
	}

	n.logger.Infow("booking notification sent",
		"booking_id", ev.Booking.ID,
		"event", ev.Kind,
		"event_id", eventID,
		"messages", len(msgs),
		"delivered", delivered,
	)
	return nil
}

// tickets reads the gateway's per-message answers. It counts accepted
// messages and collects the tokens Expo no longer knows. Tickets arrive in
// send order; MessageItem is used when the client filled it in.
func tickets(msgs []*exponent.Message, resp []*exponent.MessageResponse) (int, []string) {
	var delivered int
	var dead []string
	for i, r := range resp {
		if r == nil {
			continue
		}
		if r.IsOk() {
			delivered++
			continue
		}
		if exponent.ErrorMsg(r.Details["error"]) != exponent.ErrorMsgDeviceNotRegistered {
			continue
		}
		msg := r.MessageItem
		if msg == nil && i < len(msgs) {
			msg = msgs[i]
		}
		if msg == nil {
			continue
		}
		for _, to := range msg.To {
			if to != nil {
				dead = append(dead, string(*to))
			}
		}
	}
	return delivered, dead
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
