// Package services implements the music provider collaborators used by the web front-end.
//
// # Interfaces
//
// [Authorizer] covers the OAuth2 authorization code grant and refresh. [Catalog] covers search and the playback
// queue. [Provider] combines both.
//
// # Spotify Implementation
//
// [SpotifyService] uses [oauth2.Config] for the accounts service and plain bearer requests for the Web API.
// It holds no token itself; callers pass the access token produced by the auth manager on every call, so a
// refresh never happens behind the caller's back.
//
// Outbound Web API requests share one [rate.Limiter] so a burst of visitors cannot trip the provider's
// rate limit.
//
// # Error Handling
//
//   - [shared.ErrNotAuthenticated] : empty access token
//   - [shared.ErrAuthFailed] : code exchange rejected
//   - [shared.ErrServiceUnavailable] : transport failure or cancelled wait on the limiter
//   - [APIError] (wraps [shared.ErrAPIRequest]) : non-success status, body kept verbatim
package services
