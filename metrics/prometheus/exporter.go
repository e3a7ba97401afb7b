// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

// Package prometheus exports the rendering core's metrics as Prometheus
// collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	kestrel "github.com/kestrelweb/kestrel"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// Exporter adapts kestrel.Metrics to Prometheus collectors.
type Exporter struct {
	taskDurationSeconds  *prom.HistogramVec
	taskPanicTotal       *prom.CounterVec
	frameDurationSeconds prom.Histogram
	rasterLayers         prom.Gauge
	rasterCacheHitTotal  prom.Counter
	rasterTotal          prom.Counter
	queueDepth           *prom.GaugeVec
}

var _ kestrel.Metrics = (*Exporter)(nil)

// NewExporter creates and registers the collectors.
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "kestrel"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	taskVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Content-thread task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"tab"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of script errors caught at the task boundary.",
	}, []string{"tab"})
	frameHist := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_duration_seconds",
		Help:      "Host composite-raster-draw duration in seconds.",
		Buckets:   buckets,
	})
	layersGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "composited_layers",
		Help:      "Current number of composited layers.",
	})
	hitCounter := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "raster_cache_hit_total",
		Help:      "Total layer rasters skipped via the surface cache.",
	})
	rasterCounter := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "raster_total",
		Help:      "Total layer raster passes.",
	})
	depthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "task_queue_depth",
		Help:      "Current content-thread queue depth.",
	}, []string{"tab"})

	var err error
	if taskVec, err = registerCollector(reg, taskVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if frameHist, err = registerCollector(reg, frameHist); err != nil {
		return nil, err
	}
	if layersGauge, err = registerCollector(reg, layersGauge); err != nil {
		return nil, err
	}
	if hitCounter, err = registerCollector(reg, hitCounter); err != nil {
		return nil, err
	}
	if rasterCounter, err = registerCollector(reg, rasterCounter); err != nil {
		return nil, err
	}
	if depthVec, err = registerCollector(reg, depthVec); err != nil {
		return nil, err
	}

	return &Exporter{
		taskDurationSeconds:  taskVec,
		taskPanicTotal:       panicVec,
		frameDurationSeconds: frameHist,
		rasterLayers:         layersGauge,
		rasterCacheHitTotal:  hitCounter,
		rasterTotal:          rasterCounter,
		queueDepth:           depthVec,
	}, nil
}

// RecordTaskRun records one content-thread task execution.
func (e *Exporter) RecordTaskRun(tab string, d time.Duration) {
	if e == nil {
		return
	}
	e.taskDurationSeconds.WithLabelValues(normalizeLabel(tab)).Observe(d.Seconds())
}

// RecordTaskPanic records a caught script error.
func (e *Exporter) RecordTaskPanic(tab string) {
	if e == nil {
		return
	}
	e.taskPanicTotal.WithLabelValues(normalizeLabel(tab)).Inc()
}

// RecordFrame records one host pipeline pass.
func (e *Exporter) RecordFrame(d time.Duration) {
	if e == nil {
		return
	}
	e.frameDurationSeconds.Observe(d.Seconds())
}

// RecordRaster records a raster pass over the layer set.
func (e *Exporter) RecordRaster(layers, cacheHits int) {
	if e == nil {
		return
	}
	e.rasterLayers.Set(float64(layers))
	e.rasterTotal.Add(float64(layers))
	e.rasterCacheHitTotal.Add(float64(cacheHits))
}

// RecordQueueDepth samples a content thread's queue depth.
func (e *Exporter) RecordQueueDepth(tab string, depth int) {
	if e == nil {
		return
	}
	e.queueDepth.WithLabelValues(normalizeLabel(tab)).Set(float64(depth))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
