package model

import "time"

// Registration is the input for creating a password account.
type Registration struct {
	Username string
	Password string
	Email    string
	RealName string
	// Roles is honored only for administrator-created accounts.
	Roles []string
}

// Session is the result of a successful login.
type Session struct {
	Token string
	User  User
}

// IssuedCode describes a freshly sent one-time code.
// Code is set only when plaintext echo is enabled.
type IssuedCode struct {
	ExpiresIn time.Duration
	Code      string
}
