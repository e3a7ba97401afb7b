// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import "time"

// Metrics receives pipeline measurements. Implementations must be safe for
// concurrent use: content threads report task timings while the host
// thread reports frame timings. The Prometheus exporter lives in
// metrics/prometheus; the default is a no-op.
type Metrics interface {
	// RecordTaskRun records one content-thread task execution.
	RecordTaskRun(tab string, d time.Duration)

	// RecordTaskPanic records a script error caught at the task boundary.
	RecordTaskPanic(tab string)

	// RecordFrame records one host composite-raster-draw pass.
	RecordFrame(d time.Duration)

	// RecordRaster records a layer raster pass and its cache hits.
	RecordRaster(layers, cacheHits int)

	// RecordQueueDepth samples a content thread's queue depth.
	RecordQueueDepth(tab string, depth int)
}

// nopMetrics discards all measurements.
type nopMetrics struct{}

func (nopMetrics) RecordTaskRun(string, time.Duration) {}
func (nopMetrics) RecordTaskPanic(string)              {}
func (nopMetrics) RecordFrame(time.Duration)           {}
func (nopMetrics) RecordRaster(int, int)               {}
func (nopMetrics) RecordQueueDepth(string, int)        {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }
