// Package entrylist manages the ordered, identity-keyed sub-record
// collections (tags, ingredients, notes) of a recipe during an edit session.
//
// Each entry carries a small integer identity used by the rendering layer as a
// row key, so editing one row does not disturb the others. Two identity
// strategies are available:
//
//   - Stable (default): identities come from a counter that never reuses a
//     value. Removing an entry leaves every other identity untouched.
//   - Positional: the next identity is the current length, and removing an
//     entry relabels all survivors to their new index starting at 0. Any
//     identity held across a removal must be treated as invalid afterwards.
//
// Ordering is always positional in both strategies.
package entrylist
