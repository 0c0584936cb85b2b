//go:build property
// +build property

package notation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRenderedTreesReparse verifies that any tree the grammar can express
// parses back with the same field count, names, order and nesting.
func TestRenderedTreesReparse(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Parse(o.String()) == o", prop.ForAll(
		func(names []string, texts []string, nums []float64, flag bool) bool {
			inner := &Object{}
			for _, s := range texts {
				inner.Fields = append(inner.Fields, Field{Value: Text(s)})
			}
			for _, n := range nums {
				inner.Fields = append(inner.Fields, Field{Value: Number(n)})
			}
			root := &Object{}
			for i, name := range names {
				var v Value
				switch i % 3 {
				case 0:
					v = Bool(flag)
				case 1:
					v = ObjectValue(inner)
				default:
					v = Number(float64(i))
				}
				root.Fields = append(root.Fields, Field{Name: name, Named: true, Value: v})
			}
			root.Fields = append(root.Fields, Field{Value: ObjectValue(inner)})

			got, err := Parse([]byte(root.String()))
			if err != nil {
				return false
			}
			return cmp.Equal(root, got, cmp.AllowUnexported(Value{}))
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
