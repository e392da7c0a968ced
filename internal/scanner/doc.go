// Package scanner produces the authoritative snapshot of media files
// currently on disk under a library root.
//
// Traversal order is not significant; the reconciler treats the result as
// a set keyed by relative path. Individual unreadable entries are skipped
// rather than aborting the whole scan.
package scanner
