package notifications

import (
	"context"
	"errors"
	"testing"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
	"agrirent/internal/domain/pushtokens"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*exponent.Message
	err  error
	// failures maps a token to the error detail Expo answers with.
	failures map[string]exponent.ErrorMsg
}

func (f *fakeSender) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.sent = append(f.sent, msgs...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*exponent.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		for _, to := range m.To {
			r := &exponent.MessageResponse{MessageItem: m, Status: "ok"}
			if reason, ok := f.failures[string(*to)]; ok {
				r.Status = "error"
				r.Details = exponent.Data{"error": string(reason)}
			}
			out = append(out, r)
		}
	}
	return out, nil
}

const (
	farmerID int64 = 10
	ownerID  int64 = 20
	farmerTk       = "ExponentPushToken[farmer]"
	ownerTk        = "ExponentPushToken[owner]"
	ownerTk2       = "ExpoPushToken[owner-tablet]"
)

func setup(t *testing.T) (*BookingNotifier, *fakeSender) {
	n, sender, _ := setupWithStore(t)
	return n, sender
}

func setupWithStore(t *testing.T) (*BookingNotifier, *fakeSender, *pushtokens.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	tokens := pushtokens.NewMemoryStore()
	require.NoError(t, tokens.Register(ctx, farmerID, farmerTk, nil))
	require.NoError(t, tokens.Register(ctx, ownerID, ownerTk, nil))
	require.NoError(t, tokens.Register(ctx, ownerID, ownerTk2, nil))

	sender := &fakeSender{}
	n := NewBookingNotifier(sender, tokens, func(id int64) string { return "BK-" + string(rune('A'+id)) }, zap.NewNop().Sugar())
	return n, sender, tokens
}

func event(kind bookings.EventKind, actor int64) bookings.Event {
	return bookings.Event{
		Kind:    kind,
		ActorID: actor,
		Booking: bookings.Booking{ID: 1, RequesterID: farmerID, OwnerID: ownerID, Status: bookings.StatusPending},
	}
}

func sentTo(msgs []*exponent.Message) []string {
	var out []string
	for _, m := range msgs {
		for _, to := range m.To {
			out = append(out, string(*to))
		}
	}
	return out
}

func TestCreatedGoesToOwnerDevices(t *testing.T) {
	n, sender := setup(t)

	require.NoError(t, n.Notify(context.Background(), event(bookings.EventCreated, farmerID)))
	assert.ElementsMatch(t, []string{ownerTk, ownerTk2}, sentTo(sender.sent))

	data := sender.sent[0].Data
	assert.Equal(t, "booking", data["type"])
	assert.Equal(t, "CREATED", data["event"])
	assert.Equal(t, "BK-B", data["bookingId"])
	assert.Equal(t, screenOwner, data["screen"])
	assert.NotEmpty(t, data["eventId"])
	assert.Equal(t, data["eventId"], sender.sent[1].Data["eventId"], "one event id per event")
}

func TestConfirmedGoesToRequester(t *testing.T) {
	n, sender := setup(t)

	require.NoError(t, n.Notify(context.Background(), event(bookings.EventConfirmed, ownerID)))
	assert.Equal(t, []string{farmerTk}, sentTo(sender.sent))
	assert.Equal(t, screenRequester, sender.sent[0].Data["screen"])
}

func TestCancelledSkipsTheActor(t *testing.T) {
	n, sender := setup(t)
	require.NoError(t, n.Notify(context.Background(), event(bookings.EventCancelled, farmerID)))
	assert.ElementsMatch(t, []string{ownerTk, ownerTk2}, sentTo(sender.sent))

	n, sender = setup(t)
	require.NoError(t, n.Notify(context.Background(), event(bookings.EventCancelled, accesscontrol.SystemUserID)))
	assert.ElementsMatch(t, []string{farmerTk, ownerTk, ownerTk2}, sentTo(sender.sent))
}

func TestNotifyWithoutTokens(t *testing.T) {
	sender := &fakeSender{}
	n := NewBookingNotifier(sender, pushtokens.NewMemoryStore(), nil, zap.NewNop().Sugar())

	err := n.Notify(context.Background(), event(bookings.EventCreated, farmerID))
	assert.ErrorIs(t, err, ErrNoPushTokens)
	assert.Empty(t, sender.sent)
}

func TestNotifyPropagatesGatewayErrors(t *testing.T) {
	n, sender := setup(t)
	sender.err = errors.New("expo down")

	err := n.Notify(context.Background(), event(bookings.EventCompleted, ownerID))
	assert.ErrorIs(t, err, sender.err)
}

func TestNotifyForgetsUnregisteredDevices(t *testing.T) {
	n, sender, tokens := setupWithStore(t)
	sender.failures = map[string]exponent.ErrorMsg{
		ownerTk:  exponent.ErrorMsgDeviceNotRegistered,
		ownerTk2: exponent.ErrorMsgRateExceeded,
	}

	err := n.Notify(context.Background(), event(bookings.EventCreated, farmerID))
	assert.ErrorIs(t, err, ErrNotDelivered, "no message was accepted")

	left, err := tokens.TokensByUser(context.Background(), []int64{ownerID, farmerID})
	require.NoError(t, err)
	assert.Equal(t, []string{ownerTk2}, left[ownerID], "only the unregistered device is dropped")
	assert.Equal(t, []string{farmerTk}, left[farmerID])
}

func TestNotifyPartialDelivery(t *testing.T) {
	n, sender, tokens := setupWithStore(t)
	sender.failures = map[string]exponent.ErrorMsg{ownerTk2: exponent.ErrorMsgDeviceNotRegistered}

	require.NoError(t, n.Notify(context.Background(), event(bookings.EventCreated, farmerID)))

	left, err := tokens.TokensByUser(context.Background(), []int64{ownerID})
	require.NoError(t, err)
	assert.Equal(t, []string{ownerTk}, left[ownerID])
}

func TestTicketsFallBackToSendOrder(t *testing.T) {
	tk := exponent.Token(ownerTk)
	msgs := []*exponent.Message{{To: []*exponent.Token{&tk}}}
	resp := []*exponent.MessageResponse{{Status: "error", Details: exponent.Data{"error": "DeviceNotRegistered"}}}

	delivered, dead := tickets(msgs, resp)
	assert.Zero(t, delivered)
	assert.Equal(t, []string{ownerTk}, dead)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a"}))
}
