// Package recipe defines the recipe record, its list-view projection, and the
// compact payload codec used by the persistence gateway.
//
// # Absent vs Empty
//
// Every collection field (Tags, Ingredients, Notes) has two distinct "no
// items" states:
//   - nil: the field is absent (never set)
//   - non-nil, zero length: the field is present and empty
//
// Encode and Decode preserve the distinction. Callers must not normalize one
// into the other.
//
// # Payload Format
//
// The payload is compact JSON of the recipe body without its id:
//
//	{"v":1,"name":"Soup","tags":[{"name":"quick"}],"instructions":""}
//
// Absent collections are omitted keys. The "v" key carries the format version
// and Decode rejects versions it does not know.
package recipe
