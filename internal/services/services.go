// package services defines the interfaces the web front-end needs from the music provider.
package services

import (
	"context"

	"github.com/desertthunder/jukebox/internal/models"
	"golang.org/x/oauth2"
)

// Authorizer runs the authorization code grant for the host account.
type Authorizer interface {
	// AuthURL returns the provider's consent page URL carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Catalog searches tracks and manages the host's playback queue. Every call takes a currently valid bearer token.
type Catalog interface {
	// SearchTracks returns up to limit tracks matching query.
	SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]models.Track, error)

	// AddToQueue appends a track URI to the playback queue.
	AddToQueue(ctx context.Context, accessToken, uri string) error

	// Queue returns the currently playing track and what comes next.
	Queue(ctx context.Context, accessToken string) (*models.QueueState, error)
}

// Provider is a music service that supports both halves.
type Provider interface {
	Authorizer
	Catalog
	Name() string
}

var _ Provider = (*SpotifyService)(nil)
