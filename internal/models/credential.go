package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultLifetime is assumed when an issuer response carries neither expires_in nor an absolute expiry.
const DefaultLifetime = time.Hour

// Credential is the host account's delegated authorization.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
}

// NewCredential builds a [Credential] whose expiry is now + lifetime.
func NewCredential(accessToken, refreshToken string, lifetime time.Duration, now time.Time) (*Credential, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrInvalidCredential)
	}
	if lifetime < 0 {
		return nil, fmt.Errorf("%w: negative lifetime %v", shared.ErrInvalidCredential, lifetime)
	}

	return &Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    now.Add(lifetime),
	}, nil
}

// CredentialFromToken converts an issuer response into a [Credential].
//
// The issuer-supplied expires_in lifetime is measured from now. When the response only carries an absolute
// expiry, that expiry is used as is. A response with neither gets [DefaultLifetime].
func CredentialFromToken(tok *oauth2.Token, now time.Time) (*Credential, error) {
	if tok == nil {
		return nil, fmt.Errorf("%w: no token", shared.ErrInvalidCredential)
	}

	lifetime := DefaultLifetime
	switch {
	case tok.ExpiresIn > 0:
		lifetime = time.Duration(tok.ExpiresIn) * time.Second
	case !tok.Expiry.IsZero():
		lifetime = tok.Expiry.Sub(now)
		if lifetime < 0 {
			lifetime = 0
		}
	}

	cred, err := NewCredential(tok.AccessToken, tok.RefreshToken, lifetime, now)
	if err != nil {
		return nil, err
	}
	if tok.TokenType != "" {
		cred.TokenType = tok.TokenType
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	return cred, nil
}

// Valid reports whether the access token may be used at now. The check is strict: at ExpiresAt the token is
// already expired.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// CanRefresh reports whether the credential carries a refresh token.
func (c *Credential) CanRefresh() bool {
	return c != nil && c.RefreshToken != ""
}

// Remaining returns the access token's lifetime left at now, never negative.
func (c *Credential) Remaining(now time.Time) time.Duration {
	if c == nil || !now.Before(c.ExpiresAt) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Clone returns a copy that can be modified without touching c.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
