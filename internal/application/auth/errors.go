package auth

import "errors"

var (
	ErrAddressPasswordRequired = errors.New("Address and password are required")
	ErrUnknownAccount          = errors.New("Unknown account")
	ErrIncorrectPassword       = errors.New("Incorrect Password")
	ErrNotAuthenticated        = errors.New("Not authenticated")
	ErrInvalidAccount          = errors.New("Invalid account details")
	ErrAccountExists           = errors.New("Account already exists")
)
