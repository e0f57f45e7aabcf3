// Package refs turns database ids into short opaque references that are safe
// to show to users and put in URLs.
package refs

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

const DefaultMinLength = 8

var ErrInvalidRef = errors.New("invalid reference")

type Encoder struct {
	h *hashids.HashID
}

func New(salt string, minLength int) (*Encoder, error) {
	if salt == "" {
		return nil, errors.New("refs: salt is required")
	}
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("refs: %w", err)
	}
	return &Encoder{h: h}, nil
}

// Encode returns the reference for id. Ids are positive, so encoding only
// fails on programmer error, in which case the decimal id is returned.
func (e *Encoder) Encode(id int64) string {
	s, err := e.h.EncodeInt64([]int64{id})
	if err != nil {
		return fmt.Sprintf("%d", id)
	}
	return s
}

func (e *Encoder) Decode(ref string) (int64, error) {
	if ref == "" {
		return 0, ErrInvalidRef
	}
	ids, err := e.h.DecodeInt64WithError(ref)
	if err != nil || len(ids) != 1 || ids[0] <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return ids[0], nil
}
