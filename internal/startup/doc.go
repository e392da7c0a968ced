// Package startup handles service configuration from environment
// variables, library root validation, and build information.
package startup
