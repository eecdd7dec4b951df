package service

import (
	"regexp"
	"unicode/utf8"
)

// Form field names recognised by the account service.
const (
	FieldFirstName            = "first_name"
	FieldLastName             = "last_name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
)

// User-facing messages.
const (
	MsgNameTooShort     = "First and last name must be longer than three characters."
	MsgInvalidEmail     = "Must use valid email"
	MsgPasswordMismatch = "Passwords must match and be at least 8 characters"
	MsgPasswordTooLong  = "Password must be at most 72 bytes"
	MsgBadCredentials   = "Email/password don't match those in the database"
)

const (
	minNameLen     = 3
	minPasswordLen = 8
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.+_-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]+$`)

// Form is a submitted set of field names to values. Missing keys read as "".
type Form map[string]string

func (f Form) Get(key string) string {
	return f[key]
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateRegistration runs every registration rule and collects all failures in order.
func ValidateRegistration(form Form) []string {
	var errs []string

	if utf8.RuneCountInString(form.Get(FieldFirstName)) < minNameLen ||
		utf8.RuneCountInString(form.Get(FieldLastName)) < minNameLen {
		errs = append(errs, MsgNameTooShort)
	}

	if !ValidEmail(form.Get(FieldEmail)) {
		errs = append(errs, MsgInvalidEmail)
	}

	password := form.Get(FieldPassword)
	if utf8.RuneCountInString(password) < minPasswordLen || password != form.Get(FieldPasswordConfirmation) {
		errs = append(errs, MsgPasswordMismatch)
	}
	// x/crypto bcrypt refuses input past 72 bytes instead of truncating it.
	if len(password) > maxPasswordBytes {
		errs = append(errs, MsgPasswordTooLong)
	}

	return errs
}
