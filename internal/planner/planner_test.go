package planner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodplan/internal/flatfile"
	"prodplan/internal/graph"
	"prodplan/internal/machines"
	"prodplan/internal/recipe"
)

func in(name string, amount float64) recipe.Input {
	return recipe.Input{Name: name, Amount: amount}
}

func formula(out string, inputs ...recipe.Input) recipe.Formula {
	return recipe.Formula{Output: out, CycleTime: 1, Inputs: inputs}
}

func gearTable(t *testing.T) recipe.Table {
	t.Helper()
	f, err := flatfile.Record{
		Output:       "gear",
		OutputAmount: 1,
		CycleTime:    0.5,
		Ingredients:  []recipe.Input{in("plate", 2)},
	}.Normalize(flatfile.DefaultTimeFactors())
	require.NoError(t, err)
	return recipe.Table{"gear": f}
}

func TestGenerateGear(t *testing.T) {
	plan, g, err := Generate(gearTable(t), Request{Target: "gear", Rate: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"gear", "plate"}, g.SortedVertices())
	require.Len(t, plan.Entries, 2)

	gear := plan.Entries[0]
	assert.Equal(t, "gear", gear.Item)
	require.NotNil(t, gear.CycleTime)
	assert.InDelta(t, 0.5/0.75, *gear.CycleTime, 1e-9)
	assert.Equal(t, 2.0, gear.Rate)

	plate := plan.Entries[1]
	assert.Equal(t, "plate", plate.Item)
	assert.True(t, plate.Raw())
	assert.Equal(t, 4.0, plate.Rate)
	assert.Zero(t, plate.Concurrent())
}

func TestComputeChain(t *testing.T) {
	table := recipe.Table{
		"a": formula("a", in("b", 2)),
		"b": formula("b", in("c", 3)),
	}
	plan, err := Compute(table, graph.Build(table, "a"), "a", 1.5)
	require.NoError(t, err)
	var items []string
	for _, e := range plan.Entries {
		items = append(items, e.Item)
	}
	assert.Equal(t, []string{"a", "b", "c"}, items)
	c, ok := plan.Lookup("c")
	require.True(t, ok)
	assert.InDelta(t, 9.0, c.Rate, 1e-9)
}

func TestComputeDiamondSumsConsumers(t *testing.T) {
	table := recipe.Table{
		"a": formula("a", in("b", 2), in("c", 1)),
		"b": formula("b", in("leaf", 3)),
		"c": formula("c", in("leaf", 5)),
	}
	plan, err := Compute(table, graph.Build(table, "a"), "a", 1)
	require.NoError(t, err)

	var items []string
	for _, e := range plan.Entries {
		items = append(items, e.Item)
	}
	assert.Equal(t, []string{"a", "b", "c", "leaf"}, items)
	leaf, _ := plan.Lookup("leaf")
	assert.InDelta(t, 3*2+5*1.0, leaf.Rate, 1e-9)
	assert.Len(t, plan.Crafted(), 3)
	assert.Len(t, plan.Raw(), 1)
}

func TestComputeTargetRateIsFixed(t *testing.T) {
	table := recipe.Table{"a": formula("a", in("b", 1))}
	g := graph.Build(table, "a")
	// A consumer edge into the target does not change its rate.
	g.Vertices["z"] = struct{}{}
	g.Edges = append(g.Edges, graph.Edge{From: "z", To: "a", Weight: 10})

	plan, err := Compute(table, g, "a", 2)
	require.NoError(t, err)
	a, _ := plan.Lookup("a")
	assert.Equal(t, 2.0, a.Rate)
	z, _ := plan.Lookup("z")
	assert.Zero(t, z.Rate)
}

func TestComputeCycle(t *testing.T) {
	tests := []struct {
		name       string
		table      recipe.Table
		target     string
		unresolved []string
	}{
		{
			name: "target in cycle",
			table: recipe.Table{
				"a": formula("a", in("b", 1)),
				"b": formula("b", in("a", 1)),
			},
			target:     "a",
			unresolved: []string{"a", "b"},
		},
		{
			name: "cycle below target",
			table: recipe.Table{
				"t": formula("t", in("x", 1)),
				"x": formula("x", in("y", 1)),
				"y": formula("y", in("x", 1), in("ore", 1)),
			},
			target:     "t",
			unresolved: []string{"ore", "x", "y"},
		},
		{
			name:       "self loop",
			table:      recipe.Table{"a": formula("a", in("a", 1))},
			target:     "a",
			unresolved: []string{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, _, err := Generate(tt.table, Request{Target: tt.target, Rate: 1})
			assert.Nil(t, plan)
			var cycle *CycleError
			require.True(t, errors.As(err, &cycle), "got %v", err)
			assert.Equal(t, tt.unresolved, cycle.Unresolved)
		})
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	table := recipe.Table{"a": formula("a", in("b", 1))}
	g := graph.Build(table, "a")
	_, err := Compute(table, g, "missing", 1)
	assert.ErrorContains(t, err, "not in the graph")

	g.Edges = append(g.Edges, graph.Edge{From: "a", To: "ghost", Weight: 1})
	_, err = Compute(table, g, "a", 1)
	assert.ErrorContains(t, err, "unknown item")
}

func TestComputeIsDeterministic(t *testing.T) {
	table := recipe.Table{
		"root": formula("root", in("m", 1), in("k", 1), in("z", 1), in("b", 1)),
		"m":    formula("m", in("ore", 1)),
		"k":    formula("k", in("ore", 2)),
		"z":    formula("z", in("coal", 1)),
		"b":    formula("b", in("coal", 1), in("ore", 1)),
	}
	first, _, err := Generate(table, Request{Target: "root", Rate: 1})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, _, err := Generate(table, Request{Target: "root", Rate: 1})
		require.NoError(t, err)
		assert.Equal(t, first.Entries, again.Entries)
	}
	var items []string
	for _, e := range first.Entries {
		items = append(items, e.Item)
	}
	assert.Equal(t, []string{"root", "b", "k", "m", "ore", "z", "coal"}, items)
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(Request{Target: "gear", Rate: 1}))
	assert.Error(t, ValidateRequest(Request{Target: " ", Rate: 1}))
	assert.Error(t, ValidateRequest(Request{Target: "gear", Rate: 0}))
	assert.Error(t, ValidateRequest(Request{Target: "gear", Rate: -2}))
}

func TestWriteLoadPlan(t *testing.T) {
	plan, _, err := Generate(gearTable(t), Request{Target: "gear", Rate: 2})
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "gear", PlanFileName)
	require.NoError(t, WritePlan(path, plan))

	resolved, err := ResolvePlanPath(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	loaded, err := LoadPlan(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, plan.Entries, loaded.Entries)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
	plate, ok := loaded.Lookup("plate")
	require.True(t, ok)
	assert.Equal(t, 4.0, plate.Rate)
}

func TestValidatePlan(t *testing.T) {
	ct := 1.0
	good := &Plan{Target: "a", TargetRate: 1, Entries: []Entry{{Item: "a", CycleTime: &ct, Rate: 1}}}
	assert.NoError(t, ValidatePlan(good))

	assert.Error(t, ValidatePlan(nil))
	assert.Error(t, ValidatePlan(&Plan{Target: "a", TargetRate: 1}))
	assert.Error(t, ValidatePlan(&Plan{Target: "a", TargetRate: 1, Entries: []Entry{{Item: "b", Rate: 1}}}))
	assert.Error(t, ValidatePlan(&Plan{Target: "a", TargetRate: 1, Entries: []Entry{{Item: "a", Rate: 1}, {Item: "a", Rate: 1}}}))
}

func rowFields(t *testing.T, out, item string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == item {
			return fields
		}
	}
	t.Fatalf("no row for %q in:\n%s", item, out)
	return nil
}

func TestRenderReportTable(t *testing.T) {
	plan, _, err := Generate(gearTable(t), Request{Target: "gear", Rate: 2})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, RenderReport(&buf, plan, ReportOptions{}))
	out := buf.String()
	assert.Contains(t, out, "Assemble plan for gear at 2/s:")
	assert.Contains(t, out, "Components flow rate:")
	assert.Equal(t, []string{"gear", "0.667", "2", "120", "1.333"}, rowFields(t, out, "gear"))
	assert.Equal(t, []string{"plate", "4", "240"}, rowFields(t, out, "plate"))
}

func TestRenderReportWithMachine(t *testing.T) {
	plan, _, err := Generate(gearTable(t), Request{Target: "gear", Rate: 2})
	require.NoError(t, err)
	m, err := machines.DefaultCatalog().Crafter("assembling-machine-1")
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, RenderReport(&buf, plan, ReportOptions{Machine: &m}))
	out := buf.String()
	assert.Equal(t, []string{"gear", "0.667", "2", "120", "1.333", "2.667", "3", "270", "kW"}, rowFields(t, out, "gear"))
	assert.Contains(t, out, "Total on assembling-machine-1: 3 machines, 270 kW, pollution 9")

	report := BuildReport(plan, ReportOptions{Machine: &m})
	require.NotNil(t, report.Total)
	assert.Equal(t, 3, report.Total.Machines)
}

func TestRenderReportKeepsTinyFlows(t *testing.T) {
	f, err := flatfile.Record{
		Output:       "gear",
		OutputAmount: 1,
		CycleTime:    0.5,
		Ingredients:  []recipe.Input{in("plate", 0.0002)},
	}.Normalize(flatfile.DefaultTimeFactors())
	require.NoError(t, err)
	plan, _, err := Generate(recipe.Table{"gear": f}, Request{Target: "gear", Rate: 2})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, RenderReport(&buf, plan, ReportOptions{}))
	out := buf.String()
	assert.Equal(t, []string{"gear", "0.667", "2", "120", "1.333"}, rowFields(t, out, "gear"))
	assert.Equal(t, []string{"plate", "0.0004", "0.024"}, rowFields(t, out, "plate"))
}

func TestRenderReportTitles(t *testing.T) {
	table := recipe.Table{"iron-gear-wheel": formula("iron-gear-wheel", in("iron-plate", 2))}
	plan, _, err := Generate(table, Request{Target: "iron-gear-wheel", Rate: 1})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, RenderReport(&buf, plan, ReportOptions{Titles: true, TimeScale: 3600}))
	out := buf.String()
	assert.Contains(t, out, "Iron Gear Wheel")
	assert.Contains(t, out, "Iron Plate")
	assert.Contains(t, out, "PER HOUR")
}

func TestRenderReportStructured(t *testing.T) {
	plan, _, err := Generate(gearTable(t), Request{Target: "gear", Rate: 2})
	require.NoError(t, err)

	var js strings.Builder
	require.NoError(t, RenderReport(&js, plan, ReportOptions{Format: FormatJSON}))
	assert.Contains(t, js.String(), `"scaled_rate": 240`)

	var ym strings.Builder
	require.NoError(t, RenderReport(&ym, plan, ReportOptions{Format: FormatYAML}))
	assert.Contains(t, ym.String(), "target: gear")
	assert.Contains(t, ym.String(), "time_scale: 60")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestDiff(t *testing.T) {
	table := gearTable(t)
	a, _, err := Generate(table, Request{Target: "gear", Rate: 2})
	require.NoError(t, err)
	b, _, err := Generate(table, Request{Target: "gear", Rate: 3})
	require.NoError(t, err)

	same, err := Diff(a, a, "a.json", "a.json", ReportOptions{})
	require.NoError(t, err)
	assert.Empty(t, same)

	diff, err := Diff(a, b, "a.json", "b.json", ReportOptions{})
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a.json")
	assert.Contains(t, diff, "+++ b.json")
	assert.Contains(t, diff, "-Assemble plan for gear at 2/s:")
	assert.Contains(t, diff, "+Assemble plan for gear at 3/s:")
}
