package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/gorilla/sessions"
)

const (
	sessionName      = "jukebox_session"
	sessionKeyCred   = "credential"
	sessionKeyState  = "oauth_state"
	sessionMaxAge    = 30 * 24 * 60 * 60
	minSessionSecret = 32
)

// sessionCredential is the session copy of a credential. The session codec only needs plain strings, so the record
// travels as JSON.
type sessionCredential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// SessionStore keeps the host credential and the pending OAuth state in a signed cookie.
type SessionStore struct {
	store sessions.Store
}

// NewSessionStore creates a cookie-backed [SessionStore]. encryptionKey may be empty; when set it must be 16, 24
// or 32 bytes.
func NewSessionStore(secret, encryptionKey string, secure bool) (*SessionStore, error) {
	if len(secret) < minSessionSecret {
		return nil, fmt.Errorf("%w: session secret must be at least %d bytes", shared.ErrInvalidConfig, minSessionSecret)
	}

	keys := [][]byte{[]byte(secret)}
	if encryptionKey != "" {
		switch len(encryptionKey) {
		case 16, 24, 32:
			keys = append(keys, []byte(encryptionKey))
		default:
			return nil, fmt.Errorf("%w: encryption key must be 16, 24 or 32 bytes", shared.ErrInvalidConfig)
		}
	}

	store := sessions.NewCookieStore(keys...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionStore{store: store}, nil
}

// NewSessionStoreFromConfig builds a [SessionStore] from the [server] config section.
func NewSessionStoreFromConfig(cfg shared.ServerConfig) (*SessionStore, error) {
	return NewSessionStore(cfg.SessionSecret, cfg.EncryptionKey, cfg.SecureCookies)
}

// session returns the request's session. A cookie that fails to decode (rotated secret, tampering) yields a
// fresh session, which is still usable.
func (s *SessionStore) session(r *http.Request) (*sessions.Session, error) {
	sess, err := s.store.Get(r, sessionName)
	if sess == nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// Credential returns the session copy of the credential, or nil when the session has none.
func (s *SessionStore) Credential(r *http.Request) (*models.Credential, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	raw, ok := sess.Values[sessionKeyCred].(string)
	if !ok || raw == "" {
		return nil, nil
	}

	var rec sessionCredential
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: session credential: %v", shared.ErrInvalidCredential, err)
	}
	if rec.AccessToken == "" {
		return nil, nil
	}

	return &models.Credential{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		Scope:        rec.Scope,
		ExpiresAt:    time.Unix(rec.ExpiresAt, 0),
	}, nil
}

// SaveCredential writes cred into the session cookie. It must be called before the response body is written.
func (s *SessionStore) SaveCredential(w http.ResponseWriter, r *http.Request, cred *models.Credential) error {
	if cred == nil {
		return fmt.Errorf("%w: nil credential", shared.ErrInvalidCredential)
	}

	data, err := json.Marshal(sessionCredential{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Scope:        cred.Scope,
		ExpiresAt:    cred.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session credential: %w", err)
	}

	sess, err := s.session(r)
	if err != nil {
		return err
	}
	sess.Values[sessionKeyCred] = string(data)
	return sess.Save(r, w)
}

// ClearCredential drops the credential from the session.
func (s *SessionStore) ClearCredential(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionKeyCred)
	return sess.Save(r, w)
}

// SetState remembers the OAuth state sent with the authorization redirect.
func (s *SessionStore) SetState(w http.ResponseWriter, r *http.Request, state string) error {
	sess, err := s.session(r)
	if err != nil {
		return err
	}
	sess.Values[sessionKeyState] = state
	return sess.Save(r, w)
}

// PopState returns the pending OAuth state and removes it, so a callback can be accepted only once.
func (s *SessionStore) PopState(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := s.session(r)
	if err != nil {
		return "", err
	}

	state, _ := sess.Values[sessionKeyState].(string)
	delete(sess.Values, sessionKeyState)
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return state, nil
}
