package service

import "errors"

var (
	ErrInvalidInput          = errors.New("email and invite code are required")
	ErrInviteCodeInvalid     = errors.New("invite code invalid")
	ErrInviteCodeInactive    = errors.New("invite code inactive")
	ErrInviteCodeExhausted   = errors.New("invite code exhausted")
	ErrMagicLinkInvalid      = errors.New("magic link invalid or expired")
	ErrSignInRefused         = errors.New("sign-in refused")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrRefreshTokenInvalid   = errors.New("refresh token invalid or revoked")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserDisabled          = errors.New("user is disabled or banned")
	ErrIdentityAlreadyExists = errors.New("identity already exists")
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrCannotUnbindLast      = errors.New("cannot unbind last identity")
	ErrIdentityNotOwned      = errors.New("identity does not belong to this user")
)
