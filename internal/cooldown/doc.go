// Package cooldown spaces out queue adds per visitor.
//
// [Wait] is the pure calculation. [Tracker] applies it to a [Store] and guards the downstream call so that a
// blocked visitor never reaches it and a successful call is recorded exactly once.
//
// Stores:
//   - [MemoryStore] : process-local map
//   - [RedisStore] : shared across instances, keys expire after the window
//   - repositories.CooldownRepository : SQLite, survives restarts
package cooldown
