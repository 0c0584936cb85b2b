// Package machines describes the production machines a plan can be laid out on.
package machines

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"prodplan/internal/quantity"
)

// Source is what a machine burns for energy.
type Source string

const (
	Burner   Source = "burner"
	Electric Source = "electric"
)

// Power is the energy draw of one running machine.
type Power struct {
	Source Source `yaml:"source" json:"source"`
	Watts  int64  `yaml:"watts" json:"watts"`
}

func (p Power) String() string {
	return fmt.Sprintf("%s %s", quantity.SI(float64(p.Watts), 1, "W"), p.Source)
}

// Class separates machines that run recipes from machines that extract resources.
type Class string

const (
	Transform Class = "transform"
	Mining    Class = "mining"
)

// Machine is one catalog entry.
type Machine struct {
	Name          string  `yaml:"name" json:"name"`
	Class         Class   `yaml:"class" json:"class"`
	Power         Power   `yaml:"power" json:"power"`
	CraftingSpeed float64 `yaml:"crafting_speed,omitempty" json:"crafting_speed,omitempty"`
	MiningSpeed   float64 `yaml:"mining_speed,omitempty" json:"mining_speed,omitempty"`
	MiningPower   float64 `yaml:"mining_power,omitempty" json:"mining_power,omitempty"`
	ModuleSlots   int     `yaml:"module_slots" json:"module_slots"`
	Pollution     float64 `yaml:"pollution" json:"pollution"`
}

// Crafts reports whether m runs recipes.
func (m Machine) Crafts() bool { return m.Class == Transform }

// Validate checks the fields required for the machine's class.
func (m Machine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("machine name is required")
	}
	switch m.Power.Source {
	case Burner, Electric:
	default:
		return fmt.Errorf("%s: power source must be %q or %q", m.Name, Burner, Electric)
	}
	if m.Power.Watts <= 0 {
		return fmt.Errorf("%s: power must be positive", m.Name)
	}
	switch m.Class {
	case Transform:
		if m.CraftingSpeed <= 0 {
			return fmt.Errorf("%s: crafting_speed must be positive", m.Name)
		}
	case Mining:
		if m.MiningSpeed <= 0 || m.MiningPower <= 0 {
			return fmt.Errorf("%s: mining_speed and mining_power must be positive", m.Name)
		}
	default:
		return fmt.Errorf("%s: class must be %q or %q", m.Name, Transform, Mining)
	}
	if m.ModuleSlots < 0 {
		return fmt.Errorf("%s: module_slots must not be negative", m.Name)
	}
	return nil
}

// Load is the footprint of a whole number of machines of one type.
type Load struct {
	Machines  int
	Watts     int64
	Pollution float64
}

// Count is the number of machines needed to keep concurrent cycles running,
// before rounding. It is zero for machines that do not craft.
func (m Machine) Count(concurrent float64) float64 {
	if !m.Crafts() || m.CraftingSpeed <= 0 {
		return 0
	}
	return concurrent / m.CraftingSpeed
}

// LoadFor rounds a machine count up to whole machines.
func (m Machine) LoadFor(count float64) Load {
	n := int(math.Ceil(count - 1e-9))
	if n < 0 {
		n = 0
	}
	return Load{
		Machines:  n,
		Watts:     int64(n) * m.Power.Watts,
		Pollution: float64(n) * m.Pollution,
	}
}

// Add sums two loads.
func (l Load) Add(o Load) Load {
	return Load{
		Machines:  l.Machines + o.Machines,
		Watts:     l.Watts + o.Watts,
		Pollution: l.Pollution + o.Pollution,
	}
}

// Catalog is a set of machines keyed by name.
type Catalog struct {
	machines map[string]Machine
}

// NewCatalog validates and indexes ms. A later machine with the same name
// replaces an earlier one.
func NewCatalog(ms ...Machine) (*Catalog, error) {
	c := &Catalog{machines: make(map[string]Machine, len(ms))}
	for _, m := range ms {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		c.machines[m.Name] = m
	}
	return c, nil
}

// With returns a copy of c with overrides applied on top.
func (c *Catalog) With(overrides ...Machine) (*Catalog, error) {
	all := make([]Machine, 0, len(c.machines)+len(overrides))
	for _, name := range c.Names() {
		all = append(all, c.machines[name])
	}
	all = append(all, overrides...)
	return NewCatalog(all...)
}

// Get returns the named machine.
func (c *Catalog) Get(name string) (Machine, bool) {
	m, ok := c.machines[name]
	return m, ok
}

// Crafter returns the named machine if it runs recipes.
func (c *Catalog) Crafter(name string) (Machine, error) {
	m, ok := c.Get(name)
	if !ok {
		return Machine{}, fmt.Errorf("unknown machine %q (known: %s)", name, strings.Join(c.Names(), ", "))
	}
	if !m.Crafts() {
		return Machine{}, fmt.Errorf("machine %q is a %s machine and cannot run recipes", name, m.Class)
	}
	return m, nil
}

// Names returns machine names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.machines))
	for name := range c.machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Machines returns every machine ordered by name.
func (c *Catalog) Machines() []Machine {
	out := make([]Machine, 0, len(c.machines))
	for _, name := range c.Names() {
		out = append(out, c.machines[name])
	}
	return out
}

// Render writes the catalog as a table, or as JSON or YAML.
func Render(w io.Writer, c *Catalog, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Machines())
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c.Machines()); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCLASS\tSPEED\tPOWER\tMODULES\tPOLLUTION")
	for _, m := range c.Machines() {
		speed := m.CraftingSpeed
		if m.Class == Mining {
			speed = m.MiningSpeed
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			m.Name, m.Class, quantity.Format(speed, 2), m.Power, m.ModuleSlots, quantity.Format(m.Pollution, 2))
	}
	return tw.Flush()
}
