package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/oauth2"
)

// Refresher exchanges a refresh token for a new access token at the issuer's token endpoint.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Store persists the most recent credential.
type Store interface {
	// Load returns the stored credential, or [shared.ErrNotAuthenticated] when there is none.
	Load(ctx context.Context) (*models.Credential, error)
	// Save replaces the stored credential.
	Save(ctx context.Context, cred *models.Credential) error
}

// Manager produces currently valid credentials, refreshing and persisting them as needed.
type Manager struct {
	refresher Refresher
	store     Store
	now       func() time.Time
	logger    *log.Logger
}

// ManagerOpts contains the collaborators for a [Manager].
type ManagerOpts struct {
	Refresher Refresher
	Store     Store
	Clock     func() time.Time // defaults to time.Now
	Logger    *log.Logger
}

// NewManager creates a [Manager].
func NewManager(opts ManagerOpts) *Manager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Manager{
		refresher: opts.Refresher,
		store:     opts.Store,
		now:       opts.Clock,
		logger:    shared.WithLogger(opts.Logger, "component", "auth"),
	}
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Token returns a credential whose access token is usable now.
//
// When cred is still valid it is returned unchanged. When it is refreshed, the returned pointer is a new
// credential that has already been written to the store; callers holding a session copy should save it too.
func (m *Manager) Token(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	if cred == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !cred.CanRefresh() {
		return nil, shared.ErrNoRefreshToken
	}

	if cred.Valid(m.now()) {
		return cred, nil
	}

	m.logger.Debug("access token expired, refreshing", "expired_at", cred.ExpiresAt)

	refreshed, err := m.refresh(ctx, cred)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, refreshed); err != nil {
		// The session copy is still good; the next refresh retries the write.
		m.logger.Error("failed to persist refreshed credential", "error", err)
	}

	m.logger.Info("refreshed access token", "expires_at", refreshed.ExpiresAt.Format(time.RFC3339))
	return refreshed, nil
}

// ForceRefresh exchanges cred's refresh token now, whether or not the access token is still valid, and persists
// the result. Unlike [Manager.Token], a failed write is returned to the caller.
func (m *Manager) ForceRefresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	if cred == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !cred.CanRefresh() {
		return nil, shared.ErrNoRefreshToken
	}

	refreshed, err := m.refresh(ctx, cred)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, refreshed); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	m.logger.Info("refreshed access token", "expires_at", refreshed.ExpiresAt.Format(time.RFC3339))
	return refreshed, nil
}

// refresh makes exactly one call to the issuer and carries over the refresh token and scope it leaves out.
func (m *Manager) refresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	tok, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	refreshed, err := models.CredentialFromToken(tok, m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cred.RefreshToken
	}
	if refreshed.Scope == "" {
		refreshed.Scope = cred.Scope
	}
	return refreshed, nil
}

// AccessToken is [Manager.Token] reduced to the bearer string.
func (m *Manager) AccessToken(ctx context.Context, cred *models.Credential) (string, error) {
	valid, err := m.Token(ctx, cred)
	if err != nil {
		return "", err
	}
	return valid.AccessToken, nil
}

// Resolve picks the session credential, or the durable copy when the session has none, and runs it through
// [Manager.Token].
func (m *Manager) Resolve(ctx context.Context, session *models.Credential) (*models.Credential, error) {
	cred := session
	if cred == nil {
		stored, err := m.Resume(ctx)
		if err != nil {
			return nil, err
		}
		cred = stored
	}
	return m.Token(ctx, cred)
}

// Resume loads the durable credential left by an earlier authorization or refresh.
func (m *Manager) Resume(ctx context.Context) (*models.Credential, error) {
	cred, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			m.logger.Warn("failed to load stored credential", "error", err)
		}
		return nil, err
	}
	return cred, nil
}

// Store persists a credential obtained through a new authorization.
func (m *Manager) Store(ctx context.Context, cred *models.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return fmt.Errorf("%w: nothing to store", shared.ErrInvalidCredential)
	}
	if err := m.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	m.logger.Info("stored new credential", "expires_at", cred.ExpiresAt.Format(time.RFC3339))
	return nil
}
