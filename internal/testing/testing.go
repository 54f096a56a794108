// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
	"golang.org/x/oauth2"
)

// MockProvider is a test double for services.Provider that records every call.
type MockProvider struct {
	mu sync.Mutex

	Token   *oauth2.Token      // returned by Exchange and Refresh
	Tracks  []models.Track     // returned by SearchTracks
	State   *models.QueueState // returned by Queue
	Receipt error              // returned by AddToQueue

	ExchangeErr error
	RefreshErr  error
	SearchErr   error
	QueueErr    error

	Codes         []string
	RefreshTokens []string
	Added         []string
	AccessTokens  []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) AuthURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Codes = append(m.Codes, code)
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.Token, nil
}

func (m *MockProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshTokens = append(m.RefreshTokens, refreshToken)
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.Token, nil
}

func (m *MockProvider) SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessTokens = append(m.AccessTokens, accessToken)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if limit > 0 && len(m.Tracks) > limit {
		return m.Tracks[:limit], nil
	}
	return m.Tracks, nil
}

func (m *MockProvider) AddToQueue(ctx context.Context, accessToken, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessTokens = append(m.AccessTokens, accessToken)
	if m.Receipt != nil {
		return m.Receipt
	}
	m.Added = append(m.Added, uri)
	return nil
}

func (m *MockProvider) Queue(ctx context.Context, accessToken string) (*models.QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessTokens = append(m.AccessTokens, accessToken)
	if m.QueueErr != nil {
		return nil, m.QueueErr
	}
	if m.State == nil {
		return &models.QueueState{}, nil
	}
	return m.State, nil
}

// AddCount returns how many appends reached the provider.
func (m *MockProvider) AddCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Added)
}

// RefreshCount returns how many refresh calls reached the provider.
func (m *MockProvider) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RefreshTokens)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// SpotifyTrackJSON renders one Web API track object with the given number of album images.
func SpotifyTrackJSON(name, artist, uri string, images int) string {
	imgs := "["
	for i := range images {
		if i > 0 {
			imgs += ","
		}
		imgs += fmt.Sprintf(`{"url":"https://img.test/%s/%d","height":%d,"width":%d}`, name, i, 640>>i, 640>>i)
	}
	imgs += "]"

	return fmt.Sprintf(
		`{"id":"%s","name":"%s","type":"track","uri":"%s","artists":[{"name":"%s"}],"album":{"name":"Album","images":%s}}`,
		name, name, uri, artist, imgs,
	)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
