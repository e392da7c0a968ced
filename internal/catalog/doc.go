// Package catalog provides the persistent media catalog for a single
// library root.
//
// One SQLite catalog file lives directly beneath each root. The package
// owns the schema (files, tags, file-tag associations, the default
// "Library" collection with its manual ordering, and a key/value settings
// table), the reconciliation pass that converges the catalog to a
// filesystem scan snapshot, the playlist query engine, and the small
// mutation surface (ratings, tags, ordering, play statistics).
//
// The catalog uses WAL mode for concurrent read performance. Multi-row
// mutations (reconciliation, reordering) run inside a single transaction
// so readers observe either the pre- or post-state, never a partial one.
package catalog
