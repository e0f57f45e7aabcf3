package bookings

type EventKind string

const (
	EventCreated   EventKind = "CREATED"
	EventConfirmed EventKind = "CONFIRMED"
	EventCancelled EventKind = "CANCELLED"
	EventCompleted EventKind = "COMPLETED"
)

// Event is emitted after a booking is created or changes status.
type Event struct {
	Kind    EventKind
	Booking Booking
	ActorID int64
}

func EventFor(s Status) EventKind {
	switch s {
	case StatusConfirmed:
		return EventConfirmed
	case StatusCancelled:
		return EventCancelled
	case StatusCompleted:
		return EventCompleted
	default:
		return EventCreated
	}
}
