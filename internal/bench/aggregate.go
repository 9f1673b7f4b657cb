package bench

import "sync"

// Key identifies one accumulator: a tool evaluated on a dataset.
type Key struct {
	Dataset string
	Tool    string
}

// Totals are the running counts for one Key.
type Totals struct {
	Ref   int
	Can   int
	Match int

	Lines      int // lines scored
	Misaligned int // scored lines whose candidate length differed from the reference
	Failed     int // lines the tool could not segment
}

// Aggregator accumulates per-line results per (dataset, tool).
// Totals only ever grow; there is no reset. It is safe for concurrent use.
type Aggregator struct {
	mu          sync.Mutex
	totals      map[Key]*Totals
	order       []Key
	unsupported map[Key]string
	unsupOrder  []Key
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		totals:      make(map[Key]*Totals),
		unsupported: make(map[Key]string),
	}
}

// entry returns the totals for k, creating them on first observation.
// Callers must hold a.mu.
func (a *Aggregator) entry(k Key) *Totals {
	t, ok := a.totals[k]
	if !ok {
		t = &Totals{}
		a.totals[k] = t
		a.order = append(a.order, k)
	}
	return t
}

// Add folds one line result into the totals for (dataset, tool).
func (a *Aggregator) Add(dataset, tool string, r LineResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.entry(Key{Dataset: dataset, Tool: tool})
	t.Ref += r.Ref
	t.Can += r.Can
	t.Match += r.Match
	t.Lines++
	if !r.Aligned {
		t.Misaligned++
	}
}

// Fail records a line that the tool could not segment.
func (a *Aggregator) Fail(dataset, tool string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entry(Key{Dataset: dataset, Tool: tool}).Failed++
}

// Unsupported records an explanatory message for a tool that produced no
// numeric result on a dataset.
func (a *Aggregator) Unsupported(dataset, tool, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := Key{Dataset: dataset, Tool: tool}
	if _, ok := a.unsupported[k]; !ok {
		a.unsupOrder = append(a.unsupOrder, k)
	}
	a.unsupported[k] = msg
}

// Totals returns a copy of the totals for (dataset, tool).
func (a *Aggregator) Totals(dataset, tool string) (Totals, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.totals[Key{Dataset: dataset, Tool: tool}]
	if !ok {
		return Totals{}, false
	}
	return *t, true
}

// Keys returns all observed keys in first-observation order.
func (a *Aggregator) Keys() []Key {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]Key, len(a.order))
	copy(keys, a.order)
	return keys
}

// Datasets returns the distinct datasets among the observed keys, in
// first-observation order.
func (a *Aggregator) Datasets() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, k := range a.order {
		if !seen[k.Dataset] {
			seen[k.Dataset] = true
			out = append(out, k.Dataset)
		}
	}
	return out
}

// snapshot copies the state needed by Report under a single lock.
func (a *Aggregator) snapshot() ([]Key, map[Key]Totals, []Key, map[Key]string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]Key, len(a.order))
	copy(keys, a.order)
	totals := make(map[Key]Totals, len(a.totals))
	for k, t := range a.totals {
		totals[k] = *t
	}

	unsupKeys := make([]Key, len(a.unsupOrder))
	copy(unsupKeys, a.unsupOrder)
	unsup := make(map[Key]string, len(a.unsupported))
	for k, msg := range a.unsupported {
		unsup[k] = msg
	}
	return keys, totals, unsupKeys, unsup
}
