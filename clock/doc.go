// Package clock provides the simulation clock: the single authority mapping
// wall-clock timestamps to discrete step numbers and back. Plans and events
// must agree on "now" without re-deriving the mapping, so every
// timestamp-bearing record is stamped through one Clock instance.
package clock
