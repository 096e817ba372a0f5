// Package storage provides the built-in implementations of the core.Storage
// collaborator: a process-local in-memory store suited to tests and local
// simulations, and (in the sqlite subpackage) a durable document-style store
// on SQLite.
package storage
