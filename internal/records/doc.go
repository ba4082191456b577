// Package records stores the typed application records (accounts, profile,
// theme, audio settings and the two history lists) on top of a kvstore.Store.
//
// Reads never fail: an absent, unreadable or mis-shaped value yields the
// documented default and a WARN log line. Writes replace the whole record.
package records
