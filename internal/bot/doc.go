// Package bot connects uidkeeper to a Matrix homeserver.
//
// # Overview
//
// Bridge owns the Matrix sync loop: it filters incoming room messages
// (own messages, non-text events, rooms outside the allow-list,
// redelivered events) and hands each surviving message to a Handler in
// its own goroutine. Handler routes the message: prefixed commands go
// to their operations, a room with an armed save prompt has its next
// plain message consumed as UID input, and everything else is swept
// for profile links by the ingestion pipeline.
//
// # Commands
//
//   - save: start a manual-save dialogue (UID or UID|note)
//   - find, check, delete: per-room record operations
//   - deleteall, export, stats: admin-gated bulk operations
//   - fetchpic, fetchinfo: profile lookups through the resolver
//   - getid, cancel, help
//
// Replies travel back through the Sender interface, which Bridge
// implements over the Matrix client. Tests substitute a recording
// sender and a mock store.
package bot
