// Package core provides the foundational domain types and interfaces of the
// worldline timeline. It defines:
//
//   - Plans (bounded, goal-directed agent actions with a strict lifecycle)
//   - Events (immutable world facts with derived witness sets)
//   - Candidates (untrusted, externally generated plan proposals)
//   - Pluggable collaborator interfaces for storage, location resolution and
//     candidate generation
//   - The error taxonomy shared by every component
//
// The package intentionally keeps implementation concerns (persistence
// engines, clocks, the event log, concrete generators) out of scope, exposing
// small interfaces so backends can be substituted in tests and deployments.
package core
