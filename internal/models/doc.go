// Package models defines the records that flow between the jukebox packages.
//
// Every record is built through a constructor that validates it, so handlers and services never index into
// loosely shaped maps:
//   - [Credential] : the host account's delegated OAuth grant (access token, refresh token, expiry)
//   - [Track] : a catalog search result or queue entry
//   - [QueueState] : the currently playing track and the upcoming queue
//   - [QueueRequest] : history entry for a successful queue add
//
// Time is always passed in by the caller; nothing in this package reads the wall clock.
package models
