// Package stores provides the run-history persistence layer for snapdrill.
// It includes SQLite-based storage with WAL mode, embedded schema
// migrations, and CRUD operations for workflow runs and their events.
package stores
