// Package runstore persists flagging runs in SQLite.
//
// Each run stores the execution report, its per-pass statistics and the
// final mask as a zstd-compressed bit-packed blob. The schema is managed by
// golang-migrate from migrations embedded in the binary.
package runstore
