package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/auth"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
)

// OAuthHandler runs the authorization code flow for the host account.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	authorizer services.Authorizer
	manager    *auth.Manager
	sessions   *SessionStore
	logger     *log.Logger
}

// NewOAuthHandler creates a new OAuth handler. Credentials obtained on the callback are stored in the session and
// through manager in the durable store.
func NewOAuthHandler(authorizer services.Authorizer, manager *auth.Manager, sessions *SessionStore, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{
		authorizer: authorizer,
		manager:    manager,
		sessions:   sessions,
		logger:     shared.WithLogger(logger, "handler", "oauth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

// ServeHTTP dispatches to the login redirect or the callback.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/login":
		h.login(w, r)
	case "/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login stores a fresh state in the session and sends the host to the provider's consent page.
func (h *OAuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.SetState(w, r, state); err != nil {
		h.logger.Error("failed to save state", "error", err)
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.authorizer.AuthURL(state), http.StatusFound)
}

// callback validates the state parameter, exchanges the authorization code and stores the credential.
func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	expected, err := h.sessions.PopState(w, r)
	if err != nil {
		h.logger.Error("failed to read state", "error", err)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	if expected == "" || q.Get("state") != expected {
		h.logger.Warn("rejecting callback", "error", shared.ErrInvalidState)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
		h.logger.Warn("authorization denied", "error", err)
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tok, err := h.authorizer.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	cred, err := models.CredentialFromToken(tok, h.manager.Now())
	if err != nil {
		h.logger.Error("unusable token from exchange", "error", err)
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	if err := h.manager.Store(ctx, cred); err != nil {
		h.logger.Error("failed to persist credential", "error", err)
	}
	if err := h.sessions.SaveCredential(w, r, cred); err != nil {
		h.logger.Error("failed to save credential to session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("host authorized", "expires_at", cred.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}
