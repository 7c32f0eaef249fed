// Package repositories implements SQLite persistence for sync run history.
//
// Runs are persisted for auditing only: the sync engine computes every run
// from live registry state and never reads history back. [RunRepository]
// stores one row per run plus one row per recorded operation, queried by the
// history command.
package repositories
