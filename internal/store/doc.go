// Package store provides the SQLite-backed persistence gateway for recipes.
//
// Each recipe is one row:
//   - id: INTEGER PRIMARY KEY AUTOINCREMENT (never reused after deletion)
//   - name: TEXT, indexed, used for the post-create lookup
//   - payload: TEXT, the recipe.Encode body (everything except the id)
//
// # Connection Pool
//
// The store owns a pooled *sql.DB. Every operation acquires one connection
// for its duration and releases it on return. SQLite settings are passed in
// the DSN so that every pooled connection gets them, not just the first:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout: wait for locks instead of failing with SQLITE_BUSY
//   - foreign_keys=ON
//
// # Errors
//
// Missing ids are reported as recipe.ErrNotFound, wrapped with the operation.
// Every other storage or payload failure is a *recipe.PersistenceError that
// keeps the driver's original error.
package store
