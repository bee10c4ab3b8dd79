package validation

import (
	"net/mail"
	"strings"
)

// UserInput is the registration request body.
type UserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateUser checks a registration request and returns the normalized email.
func ValidateUser(input UserInput) (string, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return "", newError(MsgMissingEmail)
	}

	if input.Password == "" {
		return "", newError(MsgMissingPassword)
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(input.Password) > 72 {
		return "", newError(MsgPasswordTooLong)
	}

	// RFC 5321 caps the address at 254 characters
	if len(email) > 254 {
		return "", newError(MsgInvalidEmail)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", newError(MsgInvalidEmail)
	}

	return email, nil
}
