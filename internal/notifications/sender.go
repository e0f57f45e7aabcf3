package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender abstracts the push gateway. It speaks the exponent SDK types
// so the Expo client satisfies it through ExpoAdapter.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
}
