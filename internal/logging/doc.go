// Package logging provides leveled logging for the media library service.
//
// The log level is resolved once from the DEBUG and LOG_LEVEL environment
// variables and can be overridden at runtime with SetLevel.
package logging
