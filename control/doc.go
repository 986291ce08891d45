// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime introspection and hot-reload layer of hioload-ftpd.
//
// Provides concurrent-safe primitives read by the admin endpoint while the
// event loop runs on its own goroutine:
//   - named debug probes evaluated on demand
//   - a state registry the loop publishes counters into
//   - reload hooks, fired manually or by a file watcher (fsnotify)
package control
