package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() Form {
	return Form{
		FieldFirstName:            "Jane",
		FieldLastName:             "Doe",
		FieldEmail:                "jane@example.com",
		FieldPassword:             "longenough1",
		FieldPasswordConfirmation: "longenough1",
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.co", true},
		{"jane.doe+tag@mail.example.com", true},
		{"x_y-z@host-name.org", true},
		{"foo@bar", false},
		{"nodomain.com", false},
		{"", false},
		{"jane@example.c0m", false},
		{"jane doe@example.com", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name   string
		modify func(Form)
		want   []string
	}{
		{"valid", func(Form) {}, nil},
		{"short first name", func(f Form) { f[FieldFirstName] = "Jo" }, []string{MsgNameTooShort}},
		{"short last name", func(f Form) { f[FieldLastName] = "Li" }, []string{MsgNameTooShort}},
		{"three runes is enough", func(f Form) { f[FieldFirstName] = "Zoë"; f[FieldLastName] = "Ngô" }, nil},
		{"bad email", func(f Form) { f[FieldEmail] = "foo@bar" }, []string{MsgInvalidEmail}},
		{"short password", func(f Form) {
			f[FieldPassword] = "short"
			f[FieldPasswordConfirmation] = "short"
		}, []string{MsgPasswordMismatch}},
		{"confirmation differs", func(f Form) { f[FieldPasswordConfirmation] = "longenough2" }, []string{MsgPasswordMismatch}},
		{"short and different yields one message", func(f Form) {
			f[FieldPassword] = "a"
			f[FieldPasswordConfirmation] = "b"
		}, []string{MsgPasswordMismatch}},
		{"password over bcrypt limit", func(f Form) {
			long := strings.Repeat("p", 73)
			f[FieldPassword] = long
			f[FieldPasswordConfirmation] = long
		}, []string{MsgPasswordTooLong}},
		{"everything wrong", func(f Form) {
			f[FieldFirstName] = ""
			f[FieldEmail] = "nodomain.com"
			f[FieldPassword] = "1234567"
		}, []string{MsgNameTooShort, MsgInvalidEmail, MsgPasswordMismatch}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.modify(form)
			assert.Equal(t, tt.want, ValidateRegistration(form))
		})
	}
}

func TestValidateRegistration_EmptyForm(t *testing.T) {
	got := ValidateRegistration(Form{})
	assert.Equal(t, []string{MsgNameTooShort, MsgInvalidEmail, MsgPasswordMismatch}, got)
}
