// Package catalog composes the dispatcher, the filter engine and the
// entry-list controller into the data flow consumed by a rendering layer.
//
// Reads (List, Tags, Detail) are cached per dispatcher version: a fetch is
// re-issued exactly when the version has moved since the cached result, and
// concurrent readers of the same version share one gateway call. Mutations
// go through the dispatcher, whose version bump invalidates the caches.
//
// Editing happens in a Session: one explicit, versioned state object holding
// the name, instructions and the three entry lists of the recipe being
// authored.
package catalog
