// SPDX-License-Identifier: MIT

package filtertask

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filtertask_run_start_total",
		Help: "Total number of filter runs started",
	})

	runTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filtertask_run_total",
		Help: "Total number of completed filter runs by result",
	}, []string{"result"})

	abortRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filtertask_abort_request_total",
		Help: "Total number of abort requests",
	})

	runSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filtertask_run_seconds",
		Help:    "Wall-clock duration of filter runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
