// Package store provides persistent storage for uidkeeper using SQLite.
//
// # Data Models
//
//   - Record: a saved UID with an optional note, scoped to one chat room
//   - ChatSettings: per-room notification text (stored but not yet consumed)
//   - AuditEntry: log of privileged operations (delete_all, export)
//
// Every operation is filtered by chat_id. Records in one room are never
// visible to queries issued against another room, and duplicates within
// a room are allowed: dedup is the caller's responsibility.
//
// SQLiteStore implements the Store interface on database/sql with the
// modernc.org/sqlite driver. Each logical operation is a single
// statement executed against the pool, so concurrent inserts from
// different rooms (or the same room) never lose rows.
package store
