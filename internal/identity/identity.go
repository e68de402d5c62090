// Package identity mints anonymous user identities. Identities are not
// authenticated: the client persists the id and display name it received
// and presents them on subsequent requests.
package identity

import (
	"math/rand/v2"
	"strconv"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Identity is a freshly minted anonymous user.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// New returns a new random identity.
func New() Identity {
	return Identity{
		UserID:      NewUserID(),
		DisplayName: NewDisplayName(),
	}
}

// NewUserID returns a random opaque user id of the form "user-<suffix>".
func NewUserID() string {
	buf := make([]byte, 12)
	for i := range buf {
		buf[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return "user-" + string(buf)
}

// NewDisplayName returns a random display name of the form "User<n>".
func NewDisplayName() string {
	return "User" + strconv.Itoa(rand.IntN(10000))
}
