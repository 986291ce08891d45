// File: internal/ftp/auth.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ftp

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// UserStore verifies credentials against bcrypt password hashes.
type UserStore struct {
	hashes         map[string][]byte
	allowAnonymous bool
}

// NewUserStore builds a store from username to bcrypt hash.
// When allowAnonymous is set, "anonymous" and "ftp" log in with any password.
func NewUserStore(hashes map[string]string, allowAnonymous bool) *UserStore {
	us := &UserStore{
		hashes:         make(map[string][]byte, len(hashes)),
		allowAnonymous: allowAnonymous,
	}
	for user, hash := range hashes {
		us.hashes[user] = []byte(hash)
	}
	return us
}

// IsAnonymous reports whether user is one of the anonymous login names.
func IsAnonymous(user string) bool {
	u := strings.ToLower(user)
	return u == "anonymous" || u == "ftp"
}

// AnonymousAllowed reports whether anonymous logins are accepted.
func (us *UserStore) AnonymousAllowed() bool {
	return us != nil && us.allowAnonymous
}

// Authenticate reports whether password is valid for user.
func (us *UserStore) Authenticate(user, password string) bool {
	if us == nil {
		return false
	}
	if IsAnonymous(user) {
		return us.allowAnonymous
	}
	hash, ok := us.hashes[user]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// HashCost returns the bcrypt cost encoded in hash.
func HashCost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
