package service

import "errors"

// Validation
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmailTaken       = errors.New("email already registered")
	ErrWeakPassword     = errors.New("password too weak")
	ErrMissingToken     = errors.New("missing token")
)

// Authentication
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrNotVerified             = errors.New("email not verified")
	ErrInvalidPassword         = errors.New("invalid password")
	ErrInvalidAdminCredentials = errors.New("invalid admin credentials")
)

// Token lifecycle
var (
	ErrInvalidLink             = errors.New("invalid verification link")
	ErrTokenExpired            = errors.New("verification token expired")
	ErrTokenAlreadyUsed        = errors.New("verification token already used")
	ErrInvalidResetToken       = errors.New("invalid reset token")
	ErrResetTokenExpiredOrUsed = errors.New("reset token expired or used")
)

var ErrEmailDeliveryFailed = errors.New("email delivery failed")
