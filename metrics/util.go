// File: metrics/util.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOrReuse registers c with reg. If an equal collector is already
// registered, the existing one is returned instead. Panics on any other
// registration failure.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
