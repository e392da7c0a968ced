// Package handlers implements the HTTP boundary of the media library
// service: playlist queries, scan triggers, mutations, settings access,
// and media/thumbnail serving. Input sanitation (rating clamping, blank
// tag rejection) happens here before requests reach the engine.
package handlers
