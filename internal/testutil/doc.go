// Package testutil provides fixtures shared by tests of packages that sit
// above the store: a temp-dir SQLite store, a quiet logger, recipe builders,
// and gateway and navigator doubles that record what they saw.
package testutil
