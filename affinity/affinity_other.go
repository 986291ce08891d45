//go:build !linux

// File: affinity/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import "github.com/momentics/hioload-ftpd/api"

func pinPlatform(cpu int) (func(), error) { return nil, api.ErrNotSupported }

// Allowed is not available on this platform.
func Allowed() ([]int, error) { return nil, api.ErrNotSupported }
