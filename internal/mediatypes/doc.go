// Package mediatypes defines the extension policy used to decide which
// files belong in the catalog, and the MIME types used when serving them.
//
// Classification is purely extension based; no content sniffing is done.
package mediatypes
