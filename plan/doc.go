// Package plan implements the plan lifecycle manager: creation of plans from
// untrusted candidates, the TODO -> IN_PROGRESS -> DONE | FAILED state
// machine, and write-through persistence of every transition. Transitions for
// a given plan id are linearizable; concurrent calls on the same plan are
// serialized by a per-plan mutex.
package plan
