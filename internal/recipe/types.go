// Package recipe holds the canonical recipe record and the normalizer that
// extracts it from a generic notation tree.
package recipe

import (
	"fmt"
	"sort"
)

// ComponentKind distinguishes solid items from fluids.
type ComponentKind string

const (
	Item  ComponentKind = "item"
	Fluid ComponentKind = "fluid"
)

// ParseComponentKind maps the `type` literal used in prototype files.
func ParseComponentKind(s string) (ComponentKind, error) {
	switch ComponentKind(s) {
	case Item, Fluid:
		return ComponentKind(s), nil
	default:
		return "", fmt.Errorf("unknown component type %q", s)
	}
}

func (k ComponentKind) String() string { return string(k) }

// Component is an amount of an item or fluid consumed or produced per cycle.
type Component struct {
	Kind   ComponentKind `json:"type"`
	Name   string        `json:"name"`
	Amount float64       `json:"amount"`
}

// Recipe is the canonical record produced by Normalize.
type Recipe struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Products    []Component `json:"products"`
	Ingredients []Component `json:"ingredients"`
	CycleTime   float64     `json:"energy_required"`
	Enabled     bool        `json:"enabled"`
}

// SingleProduct returns the only product of r, if it has exactly one.
func (r Recipe) SingleProduct() (Component, bool) {
	if len(r.Products) != 1 {
		return Component{}, false
	}
	return r.Products[0], true
}

// Defaults are the values used for optional fields. They are tuned to the base
// game data set and can be overridden through configuration.
type Defaults struct {
	Category  string
	CycleTime float64
}

const (
	DefaultCategory  = "crafting"
	DefaultCycleTime = 0.5
)

// DefaultDefaults returns the stock defaults.
func DefaultDefaults() Defaults {
	return Defaults{Category: DefaultCategory, CycleTime: DefaultCycleTime}
}

// Input is one weighted ingredient of a Formula.
type Input struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Formula is the planning view of a recipe: what it takes to produce one unit
// of Output, and how long that takes once time factors are applied.
type Formula struct {
	Output    string  `json:"output"`
	CycleTime float64 `json:"cycle_time"`
	Inputs    []Input `json:"inputs"`
}

// Table maps output item names to formulas.
type Table map[string]Formula

// Lookup returns the formula producing item.
func (t Table) Lookup(item string) (Formula, bool) {
	f, ok := t[item]
	return f, ok
}

// Items returns the output names in lexical order.
func (t Table) Items() []string {
	items := make([]string, 0, len(t))
	for name := range t {
		items = append(items, name)
	}
	sort.Strings(items)
	return items
}
