// Package auth gates access to stored candidate records.
package auth

import "crypto/subtle"

// Defaults for a fresh installation. Override them in the configuration
// before exposing the records view to anyone.
const (
	DefaultEmail    = "admin@talenthunt.com"
	DefaultPassword = "admin123"
)

// Authenticator verifies admin credentials.
type Authenticator interface {
	Authenticate(email, password string) bool
}

// Static verifies against a single configured credential pair using
// constant-time comparison.
type Static struct {
	email    string
	password string
}

// NewStatic builds a Static authenticator. Empty arguments fall back to
// the installation defaults.
func NewStatic(email, password string) *Static {
	if email == "" {
		email = DefaultEmail
	}
	if password == "" {
		password = DefaultPassword
	}
	return &Static{email: email, password: password}
}

func (s *Static) Authenticate(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	return emailOK && passOK
}
