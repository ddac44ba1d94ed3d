// Package dispatch runs recipe mutations (add, save, delete, duplicate)
// against the persistence gateway through a single in-flight slot.
//
// STATE MACHINE:
//
//	Idle ──Dispatch──▶ Pending ──gateway returns──▶ Resolved ──Reset──▶ Idle
//	                                                   │
//	                                                   └──Dispatch──▶ Pending
//
// Only one mutation runs at a time. A Dispatch issued while another is
// Pending is rejected with ErrBusy: it is not queued, it does not touch the
// gateway, and it leaves the state and version untouched.
//
// VERSION COUNTER:
//
// Every completed dispatch, successful or not, increments a monotonic version
// counter and stores its Outcome. Readers key their cached list/detail
// fetches on the version and re-fetch whenever it changes, so a mutation
// refreshes dependent views without explicit invalidation.
//
// Local validation failures (recipe.ErrInvalidRecipe) are reported before the
// slot is claimed and never reach the gateway. Gateway errors are stored in
// the Outcome unmodified and are never retried.
package dispatch
