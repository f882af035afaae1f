// Package metrics exposes Prometheus collectors for the frame engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decode metrics
var (
	FramesDecoded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_frames_decoded_total",
			Help: "Total number of pictures completed by the decoder",
		},
	)

	Seeks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_seeks_total",
			Help: "Total number of approximate seeks issued",
		},
	)

	SeekCorrections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_seek_corrections_total",
			Help: "Total number of seeks that overshot their target and were re-issued",
		},
	)

	ReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framereader_read_failures_total",
			Help: "Total number of failed frame reads by result",
		},
		[]string{"result"},
	)
)

// Playback cache metrics
var (
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_cache_hits_total",
			Help: "Total number of navigations served from the playback cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_cache_misses_total",
			Help: "Total number of navigations that required decoding",
		},
	)

	CacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_cache_clears_total",
			Help: "Total number of playback cache clears",
		},
	)
)

// Post-processing metrics
var (
	DeinterlaceFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_deinterlace_fallbacks_total",
			Help: "Total number of pictures delivered without deinterlacing after a failure",
		},
	)

	ConversionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_conversion_failures_total",
			Help: "Total number of pictures that could not be scaled or converted",
		},
	)
)

// Bulk import metrics
var (
	Imports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framereader_imports_total",
			Help: "Total number of bulk imports by strategy",
		},
		[]string{"strategy"},
	)

	ImportCancels = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_import_cancels_total",
			Help: "Total number of bulk imports cancelled before completion",
		},
	)

	ImportedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framereader_imported_frames_total",
			Help: "Total number of frames added to analysis windows",
		},
	)

	AnalysisWindowFrames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "framereader_analysis_window_frames",
			Help: "Number of frames currently held by the analysis window",
		},
	)
)
