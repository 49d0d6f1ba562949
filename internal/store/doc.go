// Package store provides a SQLite-backed registry of contract interfaces.
//
// Interfaces are stored under their content-addressed id. Writes are
// idempotent: storing the same interface twice leaves one row. Reads
// re-derive the id from the stored body and reject rows whose content no
// longer matches their key.
//
// The registry also serves as the parent resolver for inheritance checks
// (see compiler.Resolver) and records inheritance edges, so the children of
// an interface can be listed without decoding bodies.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Edges only for registered children
//   - user_version: Schema migrations
package store
