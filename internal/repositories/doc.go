// Package repositories implements SQLite persistence for the stub score backend.
//
// Users support soft deletes via deleted_at timestamps and are excluded from queries once deleted.
//
// Key Implementations:
//   - [UserRepository] : user accounts, including the developer flag used for taste scoring
//   - [PlayRepository] : listening history with pending plays that surface through incremental fetches
//   - [SessionRepository] : access/refresh token pairs backing the session cookie
//   - [SongRepository] : the daily featured track
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
