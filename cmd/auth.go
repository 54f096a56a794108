package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/auth"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// credentialStatus is the JSON shape of `auth status --json`. Tokens are never printed.
type credentialStatus struct {
	Path          string `json:"path"`
	Authenticated bool   `json:"authenticated"`
	Valid         bool   `json:"valid"`
	CanRefresh    bool   `json:"can_refresh"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	Scope         string `json:"scope,omitempty"`
}

// AuthStatus reports the state of the durable credential.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store := auth.NewFileStore(config.Tokens.Path)
	status := credentialStatus{Path: store.Path()}

	cred, err := store.Load(ctx)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
	case err != nil:
		return err
	default:
		now := r.now()
		status.Authenticated = true
		status.Valid = cred.Valid(now)
		status.CanRefresh = cred.CanRefresh()
		status.ExpiresAt = cred.ExpiresAt.UTC().Format(time.RFC3339)
		status.Scope = cred.Scope
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("%s\n", r.palette.Title("Host credential"))
	r.writePlain("File: %s\n", status.Path)
	if !status.Authenticated {
		return r.writePlain("%s\n", r.palette.Err("not authenticated; run 'jukebox serve' and visit /login"))
	}

	r.writePlain("Expires: %s\n", status.ExpiresAt)
	if status.Scope != "" {
		r.writePlain("Scope: %s\n", status.Scope)
	}
	return r.writePlain("%s\n", r.palette.CredentialStatus(cred.ExpiresAt, status.CanRefresh, r.now()))
}

// AuthRefresh exchanges the stored refresh token for a new access token now, even if the current one is still
// valid, and persists the result.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	provider, err := r.spotify(config)
	if err != nil {
		return err
	}

	manager, store := r.manager(config, provider)
	cred, err := manager.Resume(ctx)
	if err != nil {
		return err
	}

	refreshed, err := manager.ForceRefresh(ctx, cred)
	if err != nil {
		return err
	}

	r.logger.Info("credential refreshed", "path", store.Path())
	r.writePlain("%s\n", r.palette.OK("Access token refreshed"))
	return r.writePlain("Expires: %s\n", refreshed.ExpiresAt.UTC().Format(time.RFC3339))
}

// AuthLogout deletes the durable credential. Sessions still holding a copy keep working until it expires.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store := auth.NewFileStore(config.Tokens.Path)
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return r.writePlain("%s\n", r.palette.OK("Removed "+store.Path()))
}
