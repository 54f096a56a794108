// Package tasks runs background maintenance for the jukebox server with progress reporting.
//
// # Cooldown Janitor
//
// The SQLite cooldown backend keeps one row per visitor forever. [CooldownJanitor] deletes rows whose last add is
// older than one cooldown window; such rows always produce a zero wait, so pruning never shortens a cooldown.
//
//  1. [CooldownJanitor.PruneOnce] : single pass, used by the CLI
//  2. [CooldownJanitor.Run] : pass on start, then once per interval until the context is cancelled
//
// # Progress Reporting
//
// Run reports each pass as a [ProgressUpdate] on an optional channel. Updates use select with default so a slow
// or absent reader never blocks maintenance.
package tasks
