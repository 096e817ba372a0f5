// Package query provides the read-side layer over storage: events by step
// range, by location and by witnessing agent, and plans by agent and by
// status. Unlike the event log's view queries, this layer always reads
// storage directly, so it sees the full history regardless of the log's
// window. Tombstoned events are filtered out.
package query
