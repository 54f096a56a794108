// Package server provides HTTP routing, middleware, sessions and handlers for the jukebox web front-end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [OAuthHandler] serves /login and /callback this way.
//
// # Pages
//
// [App] serves the visitor pages:
//   - / : search form and cooldown countdown
//   - /search : up to search.limit tracks, add buttons disabled while cooling down
//   - /add_to_queue : appends a track through the cooldown tracker
//   - /queue : now playing and up next
//   - /healthz : liveness
//
// Every page needs the host credential. It is read from the session, falling back to the durable credential file
// so a restart does not force a new login, and passed through the auth manager before any provider call. A refreshed
// credential is written back to the session.
//
// # Error Handling
//
//   - missing or unrefreshable credential : redirect to /login
//   - provider non-success status : 502 page showing the upstream status and body
//   - cooldown : disabled buttons, or a redirect to / from /add_to_queue
//
// # Visitors
//
// The [Visitor] middleware gives every browser a long-lived user_id cookie; the cooldown is keyed on it.
package server
