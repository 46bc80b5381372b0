package auth

import (
	"crypto/subtle"
	"errors"
)

// ErrNotAuthorized is returned by a Gate when the caller may not write.
var ErrNotAuthorized = errors.New("not authorized")

// Gate decides whether an identity may append to the feed.
type Gate interface {
	CheckAuthorized(identity string) error
}

// StaticIdentity admits exactly one identity, compared in constant time.
// An empty StaticIdentity admits nobody.
type StaticIdentity string

func (s StaticIdentity) CheckAuthorized(identity string) error {
	if s == "" || identity == "" {
		return ErrNotAuthorized
	}
	if subtle.ConstantTimeCompare([]byte(identity), []byte(s)) != 1 {
		return ErrNotAuthorized
	}
	return nil
}

// Predicate adapts a function to Gate for policies beyond a single identity.
type Predicate func(identity string) bool

func (p Predicate) CheckAuthorized(identity string) error {
	if p == nil || !p(identity) {
		return ErrNotAuthorized
	}
	return nil
}
