// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the level-triggered readiness wait used by the
// single-threaded multiplexer. The Linux implementation is built on poll(2)
// with a self-pipe for wake-ups; other platforms get a stub.
package reactor
