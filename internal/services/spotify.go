// Spotify Web API client for search and the playback queue.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// Scopes requested from the host account.
var Scopes = []string{
	"user-modify-playback-state",
	"user-read-playback-state",
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a track or, in queue responses, an episode. Episodes carry no album or artists.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	Images     []SpotifyImage  `json:"images"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyQueueResponse is the body of GET /me/player/queue.
type SpotifyQueueResponse struct {
	CurrentlyPlaying *SpotifyTrack  `json:"currently_playing"`
	Queue            []SpotifyTrack `json:"queue"`
}

// SpotifyOpts configures a [SpotifyService]. Zero URLs select the public Spotify endpoints.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL  string
	TokenURL string
	BaseURL  string

	RateLimit  float64 // requests per second to the Web API, zero for unlimited
	Burst      int
	HTTPClient *http.Client
	Logger     *log.Logger
}

// SpotifyService talks to the Spotify accounts service and Web API on behalf of the host account.
//
// The service holds no credential: every API call takes the bearer token produced by the auth manager.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 client credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrInvalidConfig)
	}

	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   opts.AuthURL,
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     shared.WithLogger(opts.Logger, "service", "spotify"),
	}, nil
}

// NewSpotifyServiceFromConfig builds a [SpotifyService] from the [credentials.spotify] config section.
func NewSpotifyServiceFromConfig(cfg shared.SpotifyConfig, logger *log.Logger) (*SpotifyService, error) {
	return NewSpotifyService(SpotifyOpts{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		RateLimit:    cfg.RateLimit,
		Burst:        cfg.Burst,
		Logger:       logger,
	})
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorization URL the host is sent to. state is echoed back on the callback.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// withClient makes the oauth2 package use the service's HTTP client for token endpoint calls.
func (s *SpotifyService) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)
	}

	tok, err := s.config.Exchange(s.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	return tok, nil
}

// Refresh exchanges a refresh token for a new access token. A response without a new refresh token carries the
// one that was sent.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	tok, err := s.config.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// send performs a rate-limited bearer request against the Web API and returns the status and raw body.
func (s *SpotifyService) send(ctx context.Context, accessToken, method, endpoint string, query url.Values) (int, []byte, error) {
	if accessToken == "" {
		return 0, nil, shared.ErrNotAuthenticated
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrServiceUnavailable, err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
	return resp.StatusCode, body, nil
}

// doRequest performs an authenticated request and decodes a 2xx JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, accessToken, method, endpoint string, query url.Values, result any) error {
	status, body, err := s.send(ctx, accessToken, method, endpoint, query)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return &APIError{Method: method, Endpoint: endpoint, StatusCode: status, Body: string(body)}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// SearchTracks returns up to limit catalog tracks matching query. Results that lack a name or URI are skipped.
func (s *SpotifyService) SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]models.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/search", params, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		track, err := item.ToModel()
		if err != nil {
			s.logger.Debug("skipping search result", "error", err)
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// AddToQueue appends the track or episode at uri to the host's playback queue.
// Only 200 and 204 count as success; anything else is an [*APIError].
func (s *SpotifyService) AddToQueue(ctx context.Context, accessToken, uri string) error {
	if uri == "" {
		return fmt.Errorf("%w: missing track uri", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("uri", uri)

	status, body, err := s.send(ctx, accessToken, http.MethodPost, "/me/player/queue", params)
	if err != nil {
		return err
	}

	if status != http.StatusOK && status != http.StatusNoContent {
		return &APIError{Method: http.MethodPost, Endpoint: "/me/player/queue", StatusCode: status, Body: string(body)}
	}
	return nil
}

// Queue returns the currently playing item and the upcoming queue.
func (s *SpotifyService) Queue(ctx context.Context, accessToken string) (*models.QueueState, error) {
	var response SpotifyQueueResponse
	if err := s.doRequest(ctx, accessToken, http.MethodGet, "/me/player/queue", nil, &response); err != nil {
		return nil, err
	}

	state := &models.QueueState{Queue: make([]models.Track, 0, len(response.Queue))}
	if response.CurrentlyPlaying != nil {
		if current, err := response.CurrentlyPlaying.ToModel(); err == nil {
			state.Current = &current
		}
	}
	for _, item := range response.Queue {
		track, err := item.ToModel()
		if err != nil {
			continue
		}
		state.Queue = append(state.Queue, track)
	}
	return state, nil
}

// ToModel converts a Spotify track to a [models.Track]. The primary artist is the first one listed.
func (t SpotifyTrack) ToModel() (models.Track, error) {
	var artist string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}

	images := t.Album.Images
	if len(images) == 0 {
		images = t.Images
	}
	return models.NewTrack(t.Name, artist, t.URI, coverImage(images))
}

// coverImage picks the medium size image (Spotify lists largest first), falling back to the only one.
func coverImage(images []SpotifyImage) string {
	switch {
	case len(images) > 1:
		return images[1].URL
	case len(images) == 1:
		return images[0].URL
	default:
		return ""
	}
}
