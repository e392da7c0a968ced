// Package library ties the catalog engine together: it owns the currently
// open root, orchestrates scan-then-reconcile refreshes, enriches playlist
// query results with playback and thumbnail information, and exposes the
// mutation surface to the HTTP boundary.
package library
