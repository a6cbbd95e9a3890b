package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dtroode/adminauth-server/internal/apierrors"
	"github.com/dtroode/adminauth-server/internal/model"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
	maxPasswordLen = 128
	maxEmailLen    = 254
	maxRealNameLen = 128
)

var roleTag = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// NormalizeEmail validates a bare RFC 5322 address and lowercases it.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" || len(email) > maxEmailLen {
		return "", apierrors.NewErrValidation("invalid email address")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", apierrors.NewErrValidation("invalid email address")
	}

	return strings.ToLower(addr.Address), nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return apierrors.NewErrValidation("username must be between 3 and 64 characters")
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return apierrors.NewErrValidation("username must not contain whitespace")
		}
		// Addresses are reserved for users created by email code.
		if r == '@' {
			return apierrors.NewErrValidation("username must not contain @")
		}
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return apierrors.NewErrValidation("password must be between 6 and 128 characters")
	}
	return nil
}

func normalizeRealName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxRealNameLen {
		return "", apierrors.NewErrValidation("real name is too long")
	}
	return name, nil
}

// normalizeRoles defaults to {user}, validates tags and drops duplicates.
func normalizeRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return []string{model.RoleUser}, nil
	}

	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if !roleTag.MatchString(role) {
			return nil, apierrors.NewErrValidation("invalid role " + role)
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}
