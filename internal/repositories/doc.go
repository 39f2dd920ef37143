// Package repositories implements SQLite persistence for playlist creation history.
//
// [CreationRepository] stores one row per create attempt with the number of tracks requested and confirmed, so
// playlists left partially populated by a failed batch can be found later (spm history).
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table counters kept in "<table>_sequence" tables.
//
// The schema is created by the embedded migrations in the shared package ([shared.RunMigrations]).
package repositories
