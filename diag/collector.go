package diag

import "sync"

// Collector gathers diagnostics with processing-stack context (§4.J).
// Collectors can be silenced (lookahead routes most diagnostics into a
// queue, see processing.Lookahead) or redirected (a reparse of a deferred
// field uses a child collector that retags diagnostics with the parent
// statement's location).
type Collector struct {
	mu      sync.Mutex
	items   []Diagnostic
	limit   int // 0 = unlimited
	dropped int
	stack   []Frame // pushed/popped by the processing manager as it enters/leaves macros and copies

	parentRelay func(Diagnostic) // set only on collectors returned by Child
}

// NewCollector returns an unlimited collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetLimit configures the diagnostic-count cap (§4.H "diagnostic-limit
// policy"). A limit of 0 means unlimited. Once the cap is reached further
// diagnostics are counted in Dropped but not retained.
func (c *Collector) SetLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = limit
}

// PushFrame enters a macro or copy frame; subsequent Add calls stamp the
// current stack snapshot onto the diagnostic.
func (c *Collector) PushFrame(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = append(c.stack, f)
}

// PopFrame leaves the innermost frame.
func (c *Collector) PopFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Add records a diagnostic, stamping the current processing-stack snapshot
// onto it if it doesn't already carry one.
func (c *Collector) Add(d Diagnostic) {
	if c.relay(d) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limit > 0 && len(c.items) >= c.limit {
		c.dropped++
		return
	}
	if d.Stack == nil && len(c.stack) > 0 {
		d.Stack = append([]Frame(nil), c.stack...)
	}
	c.items = append(c.items, d)
}

// All returns a snapshot of the collected diagnostics.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Dropped reports how many diagnostics were discarded once the limit was reached.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Child returns a collector that retags every diagnostic added to it with
// base before forwarding into the parent. Used by statement field reparse
// (§4.B) so diagnostics raised against the re-lexed deferred text are
// reported at the parent statement's location.
func (c *Collector) Child(base Range) *Collector {
	return &Collector{items: nil, limit: 0, parentRelay: func(d Diagnostic) {
		d.Range = base
		c.Add(d)
	}}
}

// parentRelay, when set, makes Add forward to the parent instead of
// accumulating locally; used only by collectors returned from Child.
func (c *Collector) relay(d Diagnostic) bool {
	if c.parentRelay == nil {
		return false
	}
	c.parentRelay(d)
	return true
}
