// Package thumbs generates and caches thumbnail artifacts for catalog
// entries.
//
// Artifacts live under the library root's reserved cache subdirectory and
// are named by an md5 hash of the file's relative path, so the expected
// location is computable without touching the catalog. Generation is
// asynchronous and fire-and-forget; the query layer only checks artifact
// existence and enqueues work for anything not yet rendered.
package thumbs
