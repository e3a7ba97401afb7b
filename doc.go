// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

// Package kestrel implements the scheduling, compositing and animation core
// of a browser rendering engine.
//
// The engine runs exactly one host thread (owning the display surface,
// raster and draw) and one content thread per open tab (owning script
// execution and the style/layout/paint pipeline for that tab's frame tree).
// The two sides meet at a single synchronization point, the commit: a
// content thread hands the host a finished display list plus scroll, size
// and focus metadata, and the host rasters and draws it on its own cadence.
//
// A rendering frame flows through the pipeline as:
//
//	style -> layout -> animation advance -> paint -> commit
//	                          (content thread)
//	commit -> composite -> raster -> draw
//	                (host thread)
//
// Compositing partitions the display list into cacheable raster layers so
// that opacity and transform animations re-execute a handful of draw
// commands per frame instead of re-rastering unchanged page content.
//
// Style, layout and paint are pluggable collaborators (see Layouter,
// Painter and ScriptEngine); package script provides a goja-backed script
// engine with one realm per frame.
package kestrel
