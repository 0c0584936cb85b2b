package planner

// Entry is the resolved requirement for one item. CycleTime is nil for raw
// inputs, which have no recipe.
type Entry struct {
	Item      string   `json:"item" yaml:"item"`
	CycleTime *float64 `json:"cycle_time,omitempty" yaml:"cycle_time,omitempty"`
	Rate      float64  `json:"rate" yaml:"rate"`
}

// Raw reports whether the item has no recipe.
func (e Entry) Raw() bool { return e.CycleTime == nil }

// Concurrent is the number of production cycles that must run at once to
// sustain Rate. It is zero for raw inputs.
func (e Entry) Concurrent() float64 {
	if e.CycleTime == nil {
		return 0
	}
	return *e.CycleTime * e.Rate
}

// Scaled converts Rate into another time unit, e.g. 60 for per-minute figures
// when rates are per second.
func (e Entry) Scaled(scale float64) float64 { return e.Rate * scale }

// Plan lists entries in resolution order: every item appears after all of
// its consumers.
type Plan struct {
	Target     string  `json:"target" yaml:"target"`
	TargetRate float64 `json:"target_rate" yaml:"target_rate"`
	Entries    []Entry `json:"entries" yaml:"entries"`

	index map[string]int
}

// Lookup returns the entry for item.
func (p *Plan) Lookup(item string) (Entry, bool) {
	if p == nil {
		return Entry{}, false
	}
	if p.index == nil {
		p.reindex()
	}
	i, ok := p.index[item]
	if !ok {
		return Entry{}, false
	}
	return p.Entries[i], true
}

// Crafted returns the entries backed by a recipe, in plan order.
func (p *Plan) Crafted() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if !e.Raw() {
			out = append(out, e)
		}
	}
	return out
}

// Raw returns the raw input entries, in plan order.
func (p *Plan) Raw() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Raw() {
			out = append(out, e)
		}
	}
	return out
}

func (p *Plan) add(e Entry) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	p.index[e.Item] = len(p.Entries)
	p.Entries = append(p.Entries, e)
}

func (p *Plan) reindex() {
	p.index = make(map[string]int, len(p.Entries))
	for i, e := range p.Entries {
		p.index[e.Item] = i
	}
}
