// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer WorldlineLogger with contextual
// helpers (component, agent, plan) and domain helpers for plan transitions,
// event appends and location resolution warnings.
package logging
