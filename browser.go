// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"
)

// defaultRefreshInterval targets 60 Hz.
const defaultRefreshInterval = 16 * time.Millisecond

// Browser is the host thread: it owns the display surface, input dispatch,
// raster and draw, and is the single point of contact between every tab's
// content thread and the screen. All cross-thread traffic goes through
// RequestAnimationFrame and Commit under the host state lock; everything
// else is thread-local.
type Browser struct {
	logger          *slog.Logger
	metrics         Metrics
	layouter        Layouter
	painter         Painter
	scriptFactory   ScriptEngineFactory
	refreshInterval time.Duration
	width, height   float64

	// mu guards the committed snapshot and the frame-scheduling bits. It
	// is held only across field copies, never across raster or draw.
	mu                  sync.Mutex
	tabs                []*Tab
	activeTab           *Tab
	needsAnimationFrame bool
	renderPendingTab    *Tab

	url            string
	scroll         float64
	docHeight      float64
	displayList    []*DisplayItem
	pendingUpdates []CompositedUpdate
	focused        NodeID
	needsComposite bool
	needsRaster    bool
	needsDraw      bool

	// Host-thread-local rendering state; only Tick touches these.
	comp   compositor
	window *Surface

	loopStop chan struct{}
	loopDone chan struct{}
}

// NewBrowser creates a host with the given options. The default
// configuration is a 800x600 viewport at 60 Hz with no script engine and
// the built-in block layouter and painter.
func NewBrowser(opts ...func(*Browser)) (*Browser, error) {
	b := &Browser{
		logger:          slog.Default(),
		metrics:         NopMetrics(),
		layouter:        blockLayouter{},
		painter:         defaultPainter{},
		refreshInterval: defaultRefreshInterval,
		width:           800,
		height:          600,
		focused:         NoNode,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.comp.logger = b.logger

	window, err := NewSurface(int(b.width), int(b.height))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window surface: %w", err)
	}
	b.window = window
	return b, nil
}

// WithLogger configures the structured logger shared by the host and all
// content threads.
func WithLogger(logger *slog.Logger) func(*Browser) {
	return func(b *Browser) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics configures the pipeline metrics sink.
func WithMetrics(m Metrics) func(*Browser) {
	return func(b *Browser) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithViewport sets the window size in CSS pixels.
func WithViewport(width, height float64) func(*Browser) {
	return func(b *Browser) {
		if width > 0 && height > 0 {
			b.width, b.height = width, height
		}
	}
}

// WithRefreshRate sets the rendering cadence.
func WithRefreshRate(interval time.Duration) func(*Browser) {
	return func(b *Browser) {
		if interval > 0 {
			b.refreshInterval = interval
		}
	}
}

// WithScriptEngine configures the per-frame script realm factory.
func WithScriptEngine(factory ScriptEngineFactory) func(*Browser) {
	return func(b *Browser) { b.scriptFactory = factory }
}

// WithLayouter replaces the built-in layout collaborator.
func WithLayouter(l Layouter) func(*Browser) {
	return func(b *Browser) {
		if l != nil {
			b.layouter = l
		}
	}
}

// WithPainter replaces the built-in paint collaborator.
func WithPainter(p Painter) func(*Browser) {
	return func(b *Browser) {
		if p != nil {
			b.painter = p
		}
	}
}

// NewTab opens a tab and starts its content thread. The first tab becomes
// active.
func (b *Browser) NewTab(name string) *Tab {
	t := newTab(b, name)
	b.mu.Lock()
	b.tabs = append(b.tabs, t)
	if b.activeTab == nil {
		b.activeTab = t
	}
	b.mu.Unlock()
	b.logger.Debug("Tab opened", "tab", name)
	return t
}

// ActiveTab returns the currently active tab.
func (b *Browser) ActiveTab() *Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeTab
}

// SetActiveTab switches the visible tab. The outgoing tab keeps running
// its content thread; its commits are discarded until it is active again.
func (b *Browser) SetActiveTab(t *Tab) {
	b.mu.Lock()
	b.activeTab = t
	b.renderPendingTab = nil
	b.needsAnimationFrame = true
	b.mu.Unlock()
	if t != nil {
		// The incoming tab must produce a fresh display list.
		t.Post(NewTask(func() {
			if f, ok := t.frames.lookup(t.rootFrame); ok {
				f.SetNeedsPaint()
			}
		}))
		t.ScheduleAnimationFrame()
	}
}

// RequestAnimationFrame raises the needs-animation-frame bit on behalf of
// t. Requests from inactive tabs are ignored: background timers keep
// running but cannot force a redraw.
func (b *Browser) RequestAnimationFrame(t *Tab) {
	b.mu.Lock()
	if t == b.activeTab {
		b.needsAnimationFrame = true
	}
	b.mu.Unlock()
}

// Commit is the single synchronization point between content and host:
// callable from any content thread, it copies the snapshot into host state
// and raises the composite/raster/draw bits. Commits from an inactive tab
// are accepted so background pages keep functioning, but are discarded
// without touching host-visible state.
func (b *Browser) Commit(t *Tab, data CommitData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.renderPendingTab == t {
		b.renderPendingTab = nil
	}
	if t != b.activeTab {
		return
	}
	b.url = data.URL
	b.docHeight = data.Height
	b.focused = data.FocusedNode
	if data.ScrollChanged {
		// A scroll-only commit (every smooth-scroll step) still needs a
		// redraw from the cached surfaces.
		b.scroll = data.Scroll
		b.needsDraw = true
	}
	if data.DisplayList != nil {
		b.displayList = data.DisplayList
		b.needsComposite = true
		b.needsRaster = true
		b.needsDraw = true
	}
	if len(data.CompositedUpdates) > 0 {
		b.pendingUpdates = append(b.pendingUpdates, data.CompositedUpdates...)
		b.needsDraw = true
	}
}

// Tick runs one host loop iteration: raster-and-draw any committed frame,
// then—only once nothing is awaiting raster—schedule at most one rendering
// task on the active tab. Running the pipeline first gives the
// backpressure guarantee: a content thread producing frames faster than
// raster and draw can consume them is throttled to the host's pace, and a
// burst of N render requests collapses into one scheduled task.
func (b *Browser) Tick() {
	b.renderPipeline()

	b.mu.Lock()
	schedule := b.needsAnimationFrame && b.renderPendingTab == nil &&
		!b.needsRaster && !b.needsDraw && b.activeTab != nil
	var tab *Tab
	if schedule {
		b.needsAnimationFrame = false
		tab = b.activeTab
		b.renderPendingTab = tab
	}
	b.mu.Unlock()

	if tab != nil {
		tab.Post(NewTask(tab.renderFrame))
	}
}

// renderPipeline drains the committed state into composite, raster and
// draw. Snapshot fields are copied out under the lock; the heavy work runs
// on host-thread-local state with the lock released.
func (b *Browser) renderPipeline() {
	b.mu.Lock()
	composite, raster, draw := b.needsComposite, b.needsRaster, b.needsDraw
	displayList := b.displayList
	updates := b.pendingUpdates
	scroll := b.scroll
	tab := b.activeTab
	b.needsComposite, b.needsRaster, b.needsDraw = false, false, false
	b.pendingUpdates = nil
	b.mu.Unlock()

	if !composite && !raster && !draw {
		return
	}
	start := time.Now()

	if composite {
		b.comp.Composite(displayList)
	}
	for _, u := range updates {
		if !b.comp.ApplyUpdate(u) && tab != nil {
			// Stale partition: the effect is not in any layer. Fall back
			// to a full pipeline pass.
			b.logger.Debug("Composited update missed, requesting repaint",
				"node", u.Node, "kind", u.Kind.String())
			tab.Post(NewTask(func() {
				if f, ok := tab.frames.lookup(tab.rootFrame); ok {
					f.SetNeedsPaint()
				}
			}))
			b.RequestAnimationFrame(tab)
		}
	}
	if raster || composite {
		hits := b.comp.Raster()
		b.metrics.RecordRaster(b.comp.LayerCount(), hits)
	}
	if draw || raster || composite {
		b.window.Fill(color.RGBA{0xff, 0xff, 0xff, 0xff})
		b.comp.Draw(b.window, scroll)
	}
	b.metrics.RecordFrame(time.Since(start))
}

// HandleScroll adjusts the host-side scroll offset (wheel or drag input),
// clamped to the document, and redraws from cached surfaces without
// involving any content thread.
func (b *Browser) HandleScroll(delta float64) {
	b.mu.Lock()
	maxScroll := b.docHeight - b.height
	if maxScroll < 0 {
		maxScroll = 0
	}
	s := b.scroll + delta
	if s < 0 {
		s = 0
	}
	if s > maxScroll {
		s = maxScroll
	}
	b.scroll = s
	b.needsDraw = true
	b.mu.Unlock()
}

// HandleClick forwards a click at window coordinates to the active tab,
// where hit testing and event dispatch run on the content thread.
func (b *Browser) HandleClick(x, y float64) {
	b.mu.Lock()
	tab := b.activeTab
	scroll := b.scroll
	b.mu.Unlock()
	if tab == nil {
		return
	}
	docY := y + scroll
	tab.Post(NewTask(func() {
		f, ok := tab.frames.lookup(tab.rootFrame)
		if !ok {
			return
		}
		// Last hit in arena order is topmost in paint order.
		hit := NoNode
		for id := 0; id < f.arena.len(); id++ {
			n := f.arena.get(NodeID(id))
			r := n.layoutRect
			if x >= r.Left && x < r.Right && docY >= r.Top && docY < r.Bottom {
				hit = NodeID(id)
			}
		}
		if hit != NoNode {
			tab.DispatchEvent(f.handle, hit, "click")
		}
	}))
}

// Scroll returns the host's current scroll offset.
func (b *Browser) Scroll() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scroll
}

// URL returns the committed page URL of the active tab.
func (b *Browser) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// Window exposes the final composited output surface.
func (b *Browser) Window() *Surface { return b.window }

// Start launches the host loop at the configured refresh interval.
func (b *Browser) Start() {
	if b.loopStop != nil {
		return
	}
	b.loopStop = make(chan struct{})
	b.loopDone = make(chan struct{})
	go func() {
		defer close(b.loopDone)
		ticker := time.NewTicker(b.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Tick()
			case <-b.loopStop:
				return
			}
		}
	}()
}

// Stop halts the host loop and shuts down every tab's content thread.
func (b *Browser) Stop() {
	if b.loopStop != nil {
		close(b.loopStop)
		<-b.loopDone
		b.loopStop = nil
	}
	b.mu.Lock()
	tabs := b.tabs
	b.tabs = nil
	b.activeTab = nil
	b.mu.Unlock()
	for _, t := range tabs {
		t.Close()
	}
	b.logger.Debug("Browser stopped")
}
