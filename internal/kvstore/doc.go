// Package kvstore persists string values under string keys.
//
// SQLite (modernc.org/sqlite, WAL, busy timeout) backs the daemon and CLI;
// Memory backs tests. Writes replace the whole value; the last writer wins.
// The store knows nothing about record shapes, see package records for that.
package kvstore
