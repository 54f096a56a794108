package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/auth"
	"github.com/desertthunder/jukebox/internal/cooldown"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
)

// History records successful queue adds.
type History interface {
	Create(ctx context.Context, req *models.QueueRequest) error
}

// AppOpts contains the collaborators of an [App].
type AppOpts struct {
	Provider      services.Provider
	Manager       *auth.Manager
	Tracker       *cooldown.Tracker
	Sessions      *SessionStore
	History       History // optional
	Logger        *log.Logger
	SearchLimit   int
	SecureCookies bool
	Clock         func() time.Time
}

// App is the jukebox web front-end.
type App struct {
	provider    services.Provider
	manager     *auth.Manager
	tracker     *cooldown.Tracker
	sessions    *SessionStore
	history     History
	logger      *log.Logger
	templates   *templates
	searchLimit int
	secure      bool
	now         func() time.Time
}

// NewApp creates an [App]. Provider, Manager, Tracker and Sessions are required.
func NewApp(opts AppOpts) (*App, error) {
	switch {
	case opts.Provider == nil:
		return nil, fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	case opts.Manager == nil:
		return nil, fmt.Errorf("%w: auth manager", shared.ErrMissingArgument)
	case opts.Tracker == nil:
		return nil, fmt.Errorf("%w: cooldown tracker", shared.ErrMissingArgument)
	case opts.Sessions == nil:
		return nil, fmt.Errorf("%w: session store", shared.ErrMissingArgument)
	}

	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 5
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &App{
		provider:    opts.Provider,
		manager:     opts.Manager,
		tracker:     opts.Tracker,
		sessions:    opts.Sessions,
		history:     opts.History,
		logger:      shared.WithLogger(opts.Logger, "component", "web"),
		templates:   tmpl,
		searchLimit: opts.SearchLimit,
		secure:      opts.SecureCookies,
		now:         opts.Clock,
	}, nil
}

// Router builds the full route table with middleware applied.
func (a *App) Router() *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(a.logger), RequestIDs(), Logging(a.logger), Visitor(a.secure))

	r.HandleFunc(http.MethodGet, "/", a.index)
	r.HandleFunc(http.MethodGet, "/search", a.search)
	r.HandleFunc(http.MethodGet, "/add_to_queue", a.addToQueue)
	r.HandleFunc(http.MethodGet, "/queue", a.queue)
	r.HandleFunc(http.MethodGet, "/healthz", a.healthz)
	r.Handler(NewOAuthHandler(a.provider, a.manager, a.sessions, a.logger))

	return r
}

// accessToken resolves a usable bearer token for the request. Only a session that already held a credential gets
// the refreshed copy written back; visitors served from the durable credential never receive it.
// When there is none it redirects to /login and reports false.
func (a *App) accessToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	session, err := a.sessions.Credential(r)
	if err != nil {
		a.logger.Warn("discarding unreadable session credential", "error", err)
		session = nil
	}

	cred, err := a.manager.Resolve(ctx, session)
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			a.logger.Warn("credential unusable, sending host to login", "error", err)
		}
		if session != nil {
			if err := a.sessions.ClearCredential(w, r); err != nil {
				a.logger.Error("failed to clear session credential", "error", err)
			}
		}
		http.Redirect(w, r, "/login", http.StatusFound)
		return "", false
	}

	if session != nil && cred != session {
		if err := a.sessions.SaveCredential(w, r, cred); err != nil {
			a.logger.Error("failed to save credential to session", "error", err)
		}
	}
	return cred.AccessToken, true
}

// wait returns the visitor's remaining cooldown in whole seconds. A store failure is logged and treated as no wait.
func (a *App) wait(ctx context.Context) int {
	remaining, err := a.tracker.Remaining(ctx, VisitorID(ctx))
	if err != nil {
		a.logger.Error("failed to read cooldown", "error", err)
		return 0
	}
	return waitSeconds(remaining)
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.accessToken(w, r); !ok {
		return
	}

	added, _ := strconv.ParseBool(r.URL.Query().Get("added"))
	a.render(w, http.StatusOK, "index", pageData{
		Title:   "Jukebox",
		Heading: "Jukebox",
		Wait:    a.wait(r.Context()),
		Added:   added,
	})
}

func (a *App) search(w http.ResponseWriter, r *http.Request) {
	token, ok := a.accessToken(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	tracks, err := a.provider.SearchTracks(r.Context(), token, query, a.searchLimit)
	if err != nil {
		a.downstreamError(w, "Search failed", err)
		return
	}

	a.render(w, http.StatusOK, "index", pageData{
		Title:   "Jukebox: " + query,
		Heading: "Jukebox",
		Query:   query,
		Tracks:  tracks,
		Wait:    a.wait(r.Context()),
	})
}

func (a *App) addToQueue(w http.ResponseWriter, r *http.Request) {
	token, ok := a.accessToken(w, r)
	if !ok {
		return
	}

	uri := r.URL.Query().Get("uri")
	if uri == "" {
		a.render(w, http.StatusBadRequest, "error", pageData{
			Title:   "Jukebox",
			Heading: "Jukebox",
			Message: "No track was selected.",
		})
		return
	}

	ctx := r.Context()
	visitor := VisitorID(ctx)

	err := a.tracker.Do(ctx, visitor, func(ctx context.Context) error {
		return a.provider.AddToQueue(ctx, token, uri)
	})

	var active *cooldown.ActiveError
	switch {
	case errors.As(err, &active):
		a.logger.Debug("queue add blocked by cooldown", "visitor", visitor, "remaining", active.Remaining)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case err != nil:
		a.downstreamError(w, "Could not add the track to the queue", err)
		return
	}

	a.logger.Info("track queued", "visitor", visitor, "uri", uri)
	a.recordHistory(ctx, visitor, uri, r.URL.Query().Get("name"))

	http.Redirect(w, r, "/?added=true", http.StatusFound)
}

func (a *App) recordHistory(ctx context.Context, visitor, uri, name string) {
	if a.history == nil {
		return
	}

	req, err := models.NewQueueRequest(visitor, uri, name, a.now())
	if err == nil {
		err = a.history.Create(ctx, req)
	}
	if err != nil {
		a.logger.Error("failed to record queue history", "error", err)
	}
}

func (a *App) queue(w http.ResponseWriter, r *http.Request) {
	token, ok := a.accessToken(w, r)
	if !ok {
		return
	}

	state, err := a.provider.Queue(r.Context(), token)
	if err != nil {
		a.downstreamError(w, "Could not load the queue", err)
		return
	}

	a.render(w, http.StatusOK, "queue", pageData{
		Title:   "Jukebox: queue",
		Heading: "Queue",
		State:   state,
	})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// downstreamError shows a provider failure to the visitor. A non-success status is passed through with its body.
func (a *App) downstreamError(w http.ResponseWriter, message string, err error) {
	a.logger.Error(message, "error", err)

	data := pageData{Title: "Jukebox: error", Heading: "Jukebox", Message: message}

	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		data.UpstreamStatus = apiErr.StatusCode
		data.UpstreamBody = apiErr.Body
	} else {
		data.UpstreamBody = err.Error()
	}

	a.render(w, http.StatusBadGateway, "error", data)
}

func (a *App) render(w http.ResponseWriter, status int, page string, data pageData) {
	if err := a.templates.render(w, status, page, data); err != nil {
		a.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
