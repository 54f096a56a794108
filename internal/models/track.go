package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/shared"
)

// Track is a catalog entry as shown to visitors.
type Track struct {
	Name   string
	Artist string
	URI    string
	Image  string // optional cover art URL
}

// NewTrack validates and builds a [Track]. Name and URI are required.
func NewTrack(name, artist, uri, image string) (Track, error) {
	if name == "" {
		return Track{}, fmt.Errorf("%w: missing name", shared.ErrInvalidTrack)
	}
	if uri == "" {
		return Track{}, fmt.Errorf("%w: %q has no uri", shared.ErrInvalidTrack, name)
	}
	return Track{Name: name, Artist: artist, URI: uri, Image: image}, nil
}

// QueueState is the player's currently playing item and upcoming queue.
type QueueState struct {
	Current *Track
	Queue   []Track
}

// QueueRequest records one successful queue add.
type QueueRequest struct {
	ID          string
	UserID      string
	TrackURI    string
	TrackName   string
	RequestedAt time.Time
}

// NewQueueRequest builds a [QueueRequest] with a generated ID.
func NewQueueRequest(userID, trackURI, trackName string, at time.Time) (*QueueRequest, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", shared.ErrInvalidInput)
	}
	if trackURI == "" {
		return nil, fmt.Errorf("%w: missing track uri", shared.ErrInvalidInput)
	}
	return &QueueRequest{
		ID:          shared.GenerateID(),
		UserID:      userID,
		TrackURI:    trackURI,
		TrackName:   trackName,
		RequestedAt: at,
	}, nil
}
