package flatfile

import "fmt"

// FactorRange applies Factor to recipes whose ingredient count lies in [Min, Max].
type FactorRange struct {
	Min    int     `yaml:"min"`
	Max    int     `yaml:"max"`
	Factor float64 `yaml:"factor"`
}

// TimeFactors divides raw cycle times by a factor chosen from the number of
// ingredients. The stock table matches the base data set.
type TimeFactors []FactorRange

// DefaultTimeFactors returns 1-2 and 3-4 ingredients -> 0.75, 5-6 -> 1.25.
func DefaultTimeFactors() TimeFactors {
	return TimeFactors{
		{Min: 1, Max: 2, Factor: 0.75},
		{Min: 3, Max: 4, Factor: 0.75},
		{Min: 5, Max: 6, Factor: 1.25},
	}
}

// Factor returns the factor for n ingredients.
func (t TimeFactors) Factor(n int) (float64, error) {
	for _, r := range t {
		if n >= r.Min && n <= r.Max {
			return r.Factor, nil
		}
	}
	return 0, fmt.Errorf("no time factor for %d ingredients", n)
}

// Validate checks that every range is well formed and positive.
func (t TimeFactors) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("at least one range is required")
	}
	for i, r := range t {
		if r.Min < 1 || r.Max < r.Min {
			return fmt.Errorf("range %d: invalid bounds %d-%d", i, r.Min, r.Max)
		}
		if r.Factor <= 0 {
			return fmt.Errorf("range %d: factor must be positive", i)
		}
		for j := 0; j < i; j++ {
			if r.Min <= t[j].Max && t[j].Min <= r.Max {
				return fmt.Errorf("range %d overlaps range %d", i, j)
			}
		}
	}
	return nil
}
