// Package store holds the three content collections (users, posts,
// comments) in SQLite.
//
// The store is deliberately rule-free: it inserts, finds, overwrites and
// removes rows, and nothing else. Uniqueness, references and cascades are
// the mutation engine's job. What the store does guarantee is atomicity:
// every mutation runs inside Update, one SQL transaction that is rolled
// back if the callback returns an error, so a half-applied cascade is
// never observable.
//
// # Database Configuration
//
//   - ":memory:" is the default DSN; a file path gives a scratch copy on disk
//   - One open connection: SQLite has a single writer, and an in-memory
//     database lives only as long as its connection
//   - busy_timeout=5000 for file-backed databases shared with other tools
//
// Queries return rows in insertion order (ORDER BY rowid).
package store
