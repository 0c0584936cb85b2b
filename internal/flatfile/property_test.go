//go:build property
// +build property

package flatfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"prodplan/internal/recipe"
)

// TestEncodeDecodeRoundTrip verifies that a single-product recipe survives
// Encode followed by DecodeLine with its name, amounts and ingredient order.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("DecodeLine(Encode(r)) == r", prop.ForAll(
		func(product string, amount, cycle float64, names []string, weights []float64) bool {
			if product == "" || len(names) == 0 {
				return true
			}
			r := recipe.Recipe{
				Name:      product,
				Products:  []recipe.Component{{Kind: recipe.Item, Name: product, Amount: amount}},
				CycleTime: cycle,
			}
			for i, name := range names {
				if name == "" {
					return true
				}
				w := 1.0
				if i < len(weights) {
					w = weights[i]
				}
				r.Ingredients = append(r.Ingredients, recipe.Component{Kind: recipe.Item, Name: name, Amount: w})
			}

			var buf bytes.Buffer
			if _, err := Encode(&buf, []recipe.Recipe{r}); err != nil {
				return false
			}
			rec, err := DecodeLine(strings.TrimSuffix(buf.String(), "\n"))
			if err != nil {
				return false
			}
			if rec.Output != product || rec.OutputAmount != amount || rec.CycleTime != cycle {
				return false
			}
			if len(rec.Ingredients) != len(r.Ingredients) {
				return false
			}
			for i, in := range rec.Ingredients {
				if in.Name != r.Ingredients[i].Name || in.Amount != r.Ingredients[i].Amount {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
		gen.Float64Range(0.01, 1000),
		gen.Float64Range(0.01, 100),
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Float64Range(0.01, 1000)),
	))

	properties.TestingRun(t)
}
