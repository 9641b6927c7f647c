package auth

import (
	"errors"

	"note-keeper/cmd/server/handlers/httperr"
)

// ErrGenAccessToken is returned when we cannot create a JWT.
var ErrGenAccessToken = errors.New("failed to generate access token")

// ErrInvalidCredentials is returned when email or password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrRegistrationFailed masks duplicate emails so sign-up cannot be used to
// check for existing accounts.
var ErrRegistrationFailed = errors.New("registration failed")

// ErrDuplicate is returned by UsersRepo.Create when the email is taken.
var ErrDuplicate = errors.New("email already registered")

// ErrUserNotFound is returned by repositories when no user matches.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidTokenMissingUserID is returned when the JWT lacks a user_id claim.
var ErrInvalidTokenMissingUserID = httperr.E{Status: 401, Message: "invalid token: missing user_id"}

// ErrInvalidTokenMissingEmail is returned when the JWT lacks an email claim.
var ErrInvalidTokenMissingEmail = httperr.E{Status: 401, Message: "invalid token: missing email"}

// ErrUnauthorized converts a token verification failure into a 401.
func ErrUnauthorized(err error) error {
	msg := "Unauthorized"
	if err != nil {
		msg = "Unauthorized: " + err.Error()
	}
	return httperr.E{Status: 401, Message: msg}
}
