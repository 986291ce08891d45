// File: internal/session/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package session
// Author: momentics <momentics@gmail.com>
//
// Per-client session state and the fixed-capacity session table.
//
// The table keeps two parallel slices of length capacity+1: the readiness
// endpoints handed to the reactor and the sessions they belong to. Slot 0 is
// always the listening socket. A session occupies the same index in both
// slices for its whole life; removal shifts later entries down by one so the
// active range stays contiguous and the relative order of clients is kept.
//
// The table is owned by a single goroutine and performs no locking.

package session
