// Package auth keeps the host account's delegated credential usable.
//
// # Lifecycle
//
// [Manager.Token] takes the caller's current [models.Credential] and returns one whose access token can be used
// right now:
//
//  1. No credential, or no refresh token: [shared.ErrNotAuthenticated] / [shared.ErrNoRefreshToken].
//     The caller sends the visitor through the authorization flow again.
//  2. now < ExpiresAt: the same credential, no network call.
//  3. Expired: one refresh request through the [Refresher]. The new access token and expiry replace the old ones,
//     the previous refresh token is kept when the issuer omits a new one, and the result is written to the [Store].
//  4. Refresh failure: [shared.ErrRefreshFailed]. Nothing is retried.
//
// # Durable copy
//
// [FileStore] mirrors the latest credential to a single JSON file so a restarted process can resume
// ([Manager.Resume]) without a fresh login for as long as the refresh token stays valid.
package auth
