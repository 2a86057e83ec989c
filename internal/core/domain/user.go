package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrEmailTaken      = errors.New("user already exists")
	ErrUnknownEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVerified = errors.New("account already verified")
	ErrMissingOTP      = errors.New("missing otp")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrExpiredOTP      = errors.New("otp expired")
)

// OTP is a purpose-scoped one-time code stored inline on the user record.
// A user holds at most one live OTP per purpose; issuing a new one replaces
// the previous.
type OTP struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is past its validity window. The boundary
// instant itself still grants validity: only now > ExpiresAt expires a code.
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// User models an account identity. Email is unique and compared byte-exact
// (case-sensitive). Verified never reverts to false once set.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"is_account_verified"`
	VerifyOTP    *OTP      `json:"-"`
	ResetOTP     *OTP      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
