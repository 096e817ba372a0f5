// Package event implements the append-only event log: validation of event
// drafts, point-in-time witness derivation through the location directory,
// write-through persistence, and a step-windowed in-memory view refreshed by
// an idempotent replace-all resync. Queries over the view are linear scans;
// the window is expected to stay small relative to full history, and callers
// narrow it via Refresh when it is not.
package event
