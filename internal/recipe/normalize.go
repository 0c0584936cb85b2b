package recipe

import (
	"fmt"

	"prodplan/internal/notation"
)

const recipeType = "recipe"

// Normalize extracts a Recipe from one prototype object.
//
// Named fields are gathered first (a repeated key keeps its last value) and
// then read in a fixed order, so `result_count` always applies to `result`
// whatever order the file lists them in. `results` replaces the single
// product set by `result`. Positional fields and unknown keys are ignored.
func Normalize(obj *notation.Object, d Defaults) (Recipe, error) {
	fields := make(map[string]notation.Value)
	if obj != nil {
		for _, f := range obj.Fields {
			if f.Named {
				fields[f.Name] = f.Value
			}
		}
	}
	x := &extractor{source: obj}

	if v, ok := fields["type"]; ok {
		s, err := x.text("type", v)
		if err != nil {
			return Recipe{}, err
		}
		if s != recipeType {
			return Recipe{}, x.fail("type", ReasonUnexpectedType, fmt.Sprintf("want %q", recipeType), v.String())
		}
	}

	v, ok := fields["name"]
	if !ok {
		return Recipe{}, x.fail("name", ReasonMissingField, "", "")
	}
	name, err := x.text("name", v)
	if err != nil {
		return Recipe{}, err
	}
	x.recipe = name

	r := Recipe{
		Name:      name,
		Category:  d.Category,
		CycleTime: d.CycleTime,
	}

	if v, ok := fields["category"]; ok {
		if r.Category, err = x.text("category", v); err != nil {
			return Recipe{}, err
		}
	}
	if v, ok := fields["enabled"]; ok {
		if r.Enabled, err = x.flag("enabled", v); err != nil {
			return Recipe{}, err
		}
	}
	if v, ok := fields["energy_required"]; ok {
		if r.CycleTime, err = x.number("energy_required", v); err != nil {
			return Recipe{}, err
		}
	}

	if v, ok := fields["result"]; ok {
		product, err := x.text("result", v)
		if err != nil {
			return Recipe{}, err
		}
		r.Products = []Component{{Kind: Item, Name: product, Amount: 1}}
	}
	if v, ok := fields["result_count"]; ok {
		count, err := x.number("result_count", v)
		if err != nil {
			return Recipe{}, err
		}
		if len(r.Products) == 1 {
			r.Products[0].Amount = count
		}
	}
	if v, ok := fields["results"]; ok {
		if r.Products, err = x.components("results", v); err != nil {
			return Recipe{}, err
		}
	}
	if v, ok := fields["ingredients"]; ok {
		if r.Ingredients, err = x.components("ingredients", v); err != nil {
			return Recipe{}, err
		}
	}

	if len(r.Products) == 0 {
		return Recipe{}, x.fail("result", ReasonMissingField, "recipe has no products", "")
	}
	if len(r.Ingredients) == 0 {
		return Recipe{}, x.fail("ingredients", ReasonMissingField, "recipe has no ingredients", "")
	}
	return r, nil
}

// Components applies the component-list extraction rule to a list object on
// its own, outside of any recipe.
func Components(list *notation.Object) ([]Component, error) {
	x := &extractor{source: list}
	return x.components("components", notation.ObjectValue(list))
}

type extractor struct {
	recipe string
	source *notation.Object
}

func (x *extractor) fail(field string, reason Reason, detail string, raw string) *IngestError {
	e := &IngestError{
		Recipe: x.recipe,
		Field:  field,
		Reason: reason,
		Detail: detail,
		Raw:    raw,
	}
	if x.recipe == "" {
		e.Context = x.source.String()
	}
	return e
}

func (x *extractor) mismatch(field string, want notation.Kind, v notation.Value) *IngestError {
	return x.fail(field, ReasonTypeMismatch, fmt.Sprintf("expected %s, got %s", want, v.Kind()), v.String())
}

func (x *extractor) text(field string, v notation.Value) (string, error) {
	s, ok := v.AsText()
	if !ok {
		return "", x.mismatch(field, notation.KindText, v)
	}
	return s, nil
}

func (x *extractor) number(field string, v notation.Value) (float64, error) {
	f, ok := v.AsNumber()
	if !ok {
		return 0, x.mismatch(field, notation.KindNumber, v)
	}
	return f, nil
}

func (x *extractor) flag(field string, v notation.Value) (bool, error) {
	if b, ok := v.AsBool(); ok {
		return b, nil
	}
	if s, ok := v.AsText(); ok {
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, x.fail(field, ReasonTypeMismatch, `string is not "true" or "false"`, v.String())
	}
	return false, x.mismatch(field, notation.KindBool, v)
}

func (x *extractor) components(field string, v notation.Value) ([]Component, error) {
	list, ok := v.AsObject()
	if !ok {
		return nil, x.mismatch(field, notation.KindObject, v)
	}
	out := make([]Component, 0, list.Len())
	for i, f := range list.Fields {
		path := fmt.Sprintf("%s[%d]", field, i)
		entry, ok := f.Value.AsObject()
		if !ok {
			return nil, x.fail(path, ReasonBadComponent, "primitive in component list", f.Value.String())
		}
		c, err := x.component(path, entry)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (x *extractor) component(path string, entry *notation.Object) (Component, error) {
	raw := entry.String()
	switch {
	case entry.Mixed():
		return Component{}, x.fail(path, ReasonMixedFields, "", raw)
	case entry.Named():
		return x.namedComponent(path, entry)
	case entry.Positional():
		if entry.Len() < 2 {
			return Component{}, x.fail(path, ReasonBadComponent, "positional component needs name and amount", raw)
		}
		name, err := x.text(path+".name", entry.Fields[0].Value)
		if err != nil {
			return Component{}, err
		}
		amount, err := x.number(path+".amount", entry.Fields[1].Value)
		if err != nil {
			return Component{}, err
		}
		return Component{Kind: Item, Name: name, Amount: amount}, nil
	default:
		return Component{}, x.fail(path, ReasonBadComponent, "empty component", raw)
	}
}

func (x *extractor) namedComponent(path string, entry *notation.Object) (Component, error) {
	raw := entry.String()
	fields := make(map[string]notation.Value, entry.Len())
	for _, f := range entry.Fields {
		fields[f.Name] = f.Value
	}
	for _, key := range []string{"type", "name", "amount"} {
		if _, ok := fields[key]; !ok {
			return Component{}, x.fail(path+"."+key, ReasonMissingField, "", raw)
		}
	}

	kind, err := x.text(path+".type", fields["type"])
	if err != nil {
		return Component{}, err
	}
	c := Component{}
	if c.Kind, err = ParseComponentKind(kind); err != nil {
		return Component{}, x.fail(path+".type", ReasonUnexpectedType, err.Error(), fields["type"].String())
	}
	if c.Name, err = x.text(path+".name", fields["name"]); err != nil {
		return Component{}, err
	}
	if c.Amount, err = x.number(path+".amount", fields["amount"]); err != nil {
		return Component{}, err
	}
	return c, nil
}
