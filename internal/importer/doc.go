// Package importer reads and writes recipe documents.
//
// A document file holds a top-level "recipes" list. Collections that are
// missing from a document stay absent on the imported recipe; collections
// written as an empty list stay empty.
//
// Supported inputs, chosen by file extension:
//
//	.yaml, .yml  gopkg.in/yaml.v3, unknown keys rejected
//	.toml        [[recipes]] tables, unknown keys rejected
//	.cue         unified with the embedded schema and required concrete
//	.json        unknown keys rejected
//
// Write emits yaml, json or toml.
package importer
