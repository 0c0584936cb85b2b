package machines

// DefaultCatalog returns the base game machines.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultMachines...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultMachines = []Machine{
	{
		Name:          "chemical-plant",
		Class:         Transform,
		Power:         Power{Source: Electric, Watts: 210_000},
		CraftingSpeed: 1.25,
		ModuleSlots:   2,
		Pollution:     1.8,
	},
	{
		Name:          "electric-furnace",
		Class:         Transform,
		Power:         Power{Source: Electric, Watts: 180_000},
		CraftingSpeed: 2.0,
		ModuleSlots:   2,
		Pollution:     0.9,
	},
	{
		Name:          "steel-furnace",
		Class:         Transform,
		Power:         Power{Source: Burner, Watts: 180_000},
		CraftingSpeed: 2.0,
		Pollution:     3.6,
	},
	{
		Name:          "stone-furnace",
		Class:         Transform,
		Power:         Power{Source: Burner, Watts: 180_000},
		CraftingSpeed: 1.0,
		Pollution:     1.8,
	},
	{
		Name:          "assembling-machine-1",
		Class:         Transform,
		Power:         Power{Source: Electric, Watts: 90_000},
		CraftingSpeed: 0.5,
		Pollution:     3.0,
	},
	{
		Name:          "assembling-machine-2",
		Class:         Transform,
		Power:         Power{Source: Electric, Watts: 150_000},
		CraftingSpeed: 0.75,
		ModuleSlots:   2,
		Pollution:     2.4,
	},
	{
		Name:          "assembling-machine-3",
		Class:         Transform,
		Power:         Power{Source: Electric, Watts: 210_000},
		CraftingSpeed: 1.25,
		ModuleSlots:   4,
		Pollution:     1.8,
	},
	{
		Name:          "oil-refinery",
		Class:         Transform,
		Power:         Power{Source: Electric, Watts: 420_000},
		CraftingSpeed: 1.0,
		ModuleSlots:   2,
		Pollution:     3.6,
	},
	{
		Name:        "electric-mining-drill",
		Class:       Mining,
		Power:       Power{Source: Electric, Watts: 90_000},
		MiningSpeed: 0.5,
		MiningPower: 3.0,
		ModuleSlots: 3,
		Pollution:   9.0,
	},
	{
		Name:        "burner-mining-drill",
		Class:       Mining,
		Power:       Power{Source: Burner, Watts: 300_000},
		MiningSpeed: 0.35,
		MiningPower: 2.5,
		Pollution:   10.0,
	},
	{
		Name:        "pumpjack",
		Class:       Mining,
		Power:       Power{Source: Electric, Watts: 90_000},
		MiningSpeed: 1.0,
		MiningPower: 2.0,
		ModuleSlots: 2,
		Pollution:   9.0,
	},
}
