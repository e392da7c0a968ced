// Package metrics defines the Prometheus collectors exported by the
// media library service. All collectors are registered via promauto at
// package initialization and namespaced under media_library_.
package metrics
