package notation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var valueCmp = cmp.AllowUnexported(Value{})

func named(name string, v Value) Field { return Field{Name: name, Named: true, Value: v} }

func pos(v Value) Field { return Field{Value: v} }

func obj(fields ...Field) *Object { return &Object{Fields: fields} }

func TestParseMirrorsLiteralStructure(t *testing.T) {
	got, err := Parse([]byte(`{a=1, b="x", c={2, "y"}}`))
	require.NoError(t, err)

	want := obj(
		named("a", Number(1)),
		named("b", Text("x")),
		named("c", ObjectValue(obj(pos(Number(2)), pos(Text("y"))))),
	)
	if diff := cmp.Diff(want, got, valueCmp); diff != "" {
		t.Fatalf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.True(t, got.Named())
	inner, ok := got.Fields[2].Value.AsObject()
	require.True(t, ok)
	assert.True(t, inner.Positional())
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *Object
	}{
		{
			name: "empty object",
			src:  "{}",
			want: obj(),
		},
		{
			name: "empty object with whitespace",
			src:  " {\n\t} ",
			want: obj(),
		},
		{
			name: "trailing comma",
			src:  `{ "a", "b", }`,
			want: obj(pos(Text("a")), pos(Text("b"))),
		},
		{
			name: "booleans",
			src:  `{enabled = false, true}`,
			want: obj(named("enabled", Bool(false)), pos(Bool(true))),
		},
		{
			name: "boolean keyword used as field name",
			src:  `{true = 1}`,
			want: obj(named("true", Number(1))),
		},
		{
			name: "empty string",
			src:  `{name = ""}`,
			want: obj(named("name", Text(""))),
		},
		{
			name: "string keeps inner whitespace and punctuation",
			src:  `{" a, b = {c} "}`,
			want: obj(pos(Text(" a, b = {c} "))),
		},
		{
			name: "numbers",
			src:  `{0, -3, 2.25, -0.5, 10}`,
			want: obj(pos(Number(0)), pos(Number(-3)), pos(Number(2.25)), pos(Number(-0.5)), pos(Number(10))),
		},
		{
			name: "whitespace around equals and commas",
			src:  "{\r\n  energy_required\t=\t10 ,\n  result_count =2\n}",
			want: obj(named("energy_required", Number(10)), named("result_count", Number(2))),
		},
		{
			name: "duplicate names are kept in order",
			src:  `{a = 1, a = 2}`,
			want: obj(named("a", Number(1)), named("a", Number(2))),
		},
		{
			name: "nested positional components",
			src:  `{ingredients = {{"iron-plate", 2}, {type="fluid", name="water", amount=10}}}`,
			want: obj(named("ingredients", ObjectValue(obj(
				pos(ObjectValue(obj(pos(Text("iron-plate")), pos(Number(2))))),
				pos(ObjectValue(obj(
					named("type", Text("fluid")),
					named("name", Text("water")),
					named("amount", Number(10)),
				))),
			)))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, valueCmp); diff != "" {
				t.Fatalf("unexpected tree (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		offset int
	}{
		{name: "missing open brace", src: `a = 1`, offset: 0},
		{name: "unterminated string", src: `{"abc}`, offset: 1},
		{name: "dot without fraction", src: `{a = 1.}`, offset: 6},
		{name: "exponent", src: `{1e5}`, offset: 2},
		{name: "missing comma", src: `{1 2}`, offset: 3},
		{name: "lonely comma", src: `{,}`, offset: 1},
		{name: "missing close brace", src: `{a = 1`, offset: 6},
		{name: "bare identifier value", src: `{a = b}`, offset: 5},
		{name: "boolean prefix of identifier", src: `{trueish}`, offset: 1},
		{name: "trailing garbage", src: `{} x`, offset: 3},
		{name: "minus without digits", src: `{-}`, offset: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Nil(t, got)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.offset, se.Offset)
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse([]byte("{\n  a = 1,\n  b = ?\n}"))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Line)
	assert.Equal(t, 7, se.Column)
	assert.Contains(t, se.Error(), "3:7")
}

func TestParseDocument(t *testing.T) {
	src := `
data:extend(
{
  {
    type = "recipe",
    name = "iron-gear-wheel",
    ingredients = {{"iron-plate", 2}},
    result = "iron-gear-wheel"
  },
  {
    type = "recipe",
    name = "copper-cable",
    ingredients = {{"copper-plate", 1}},
    result = "copper-cable",
    result_count = 2
  },
}
)
`
	objs, err := ParseDocument([]byte(src))
	require.NoError(t, err)
	require.Len(t, objs, 2)

	name, ok := objs[1].Get("name")
	require.True(t, ok)
	s, _ := name.AsText()
	assert.Equal(t, "copper-cable", s)
	count, _ := objs[1].Get("result_count")
	n, _ := count.AsNumber()
	assert.Equal(t, 2.0, n)
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "missing wrapper", src: `{{type = "recipe"}}`},
		{name: "missing close paren", src: `data:extend({{}}`},
		{name: "primitive entry", src: `data:extend({{name = "a"}, "b"})`},
		{name: "content after wrapper", src: `data:extend({}) data:extend({})`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objs, err := ParseDocument([]byte(tt.src))
			assert.Nil(t, objs)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestParseDocumentEmpty(t *testing.T) {
	objs, err := ParseDocument([]byte("data:extend({})\n"))
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestStringRoundTrip(t *testing.T) {
	src := `{type = "recipe", enabled = false, list = {{"a", 1.5}, {name = "b", amount = -2}}, {}}`
	first, err := Parse([]byte(src))
	require.NoError(t, err)
	second, err := Parse([]byte(first.String()))
	require.NoError(t, err)
	if diff := cmp.Diff(first, second, valueCmp); diff != "" {
		t.Fatalf("render/parse mismatch (-first +second):\n%s", diff)
	}
}

func TestObjectShape(t *testing.T) {
	assert.False(t, obj().Named())
	assert.False(t, obj().Positional())
	assert.True(t, obj(named("a", Number(1)), pos(Number(2))).Mixed())

	o := obj(named("a", Number(1)), named("a", Number(2)))
	v, ok := o.Get("a")
	require.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, 2.0, n)
	_, ok = o.Get("missing")
	assert.False(t, ok)
}
