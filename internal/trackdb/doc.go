// Package trackdb persists finished tracking runs to SQLite: the run
// parameters, every track with its state and tick span, and every
// input item with its track assignment. Schema changes go through
// embedded golang-migrate migrations.
//
// No tracking logic is allowed in this package; it consumes
// track.Result values and never mutates them.
package trackdb
