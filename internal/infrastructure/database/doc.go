// Package database provides Kiln's SQLite persistence layer.
//
// One database file holds everything the coordinator persists: the
// kv_store table backing durable state-lock records and the job_history
// table feeding scheduler success rates. The connection is opened in WAL
// mode with a single writer, which matches SQLite's concurrency model and
// keeps lock mirroring strictly ordered.
//
// Schema changes ship as embedded up/down SQL migrations; the migrations
// package registers them into MigrationsFS and Migrate applies pending
// ones on every startup.
package database
