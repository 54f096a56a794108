// Package repositories implements SQLite persistence for the jukebox.
//
// Key Implementations:
//   - [CooldownRepository] : last add time per visitor, a durable cooldown.Store
//   - [QueueRequestRepository] : history of successful queue adds
//
// Timestamps are stored as Unix seconds. The schema comes from the migrations embedded in the shared package;
// [Open] applies them before handing out repositories.
package repositories
