// Package notation parses the object-literal subset used by recipe prototype
// files into a generic tree of typed fields. It has no knowledge of recipes.
package notation

import (
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindNumber
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "string"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over the literal types of the notation.
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
	obj  *Object
}

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// ObjectValue wraps a nested object. A nil object is treated as empty.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = &Object{}
	}
	return Value{kind: KindObject, obj: o}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// String renders v back into the notation.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindText:
		b.WriteByte('"')
		b.WriteString(v.text)
		b.WriteByte('"')
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b.WriteString(strconv.FormatFloat(v.num, 'f', -1, 64))
	case KindObject:
		v.obj.write(b)
	}
}

// Field is one entry of an object. Positional fields have Named == false and
// an empty Name.
type Field struct {
	Name  string
	Named bool
	Value Value
}

// Object is an ordered list of fields. Names are not required to be unique.
type Object struct {
	Fields []Field
}

// Len returns the number of fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Fields)
}

// Named reports whether the object has at least one field and every field is named.
func (o *Object) Named() bool {
	named, positional := o.shape()
	return named > 0 && positional == 0
}

// Positional reports whether the object has at least one field and no field is named.
func (o *Object) Positional() bool {
	named, positional := o.shape()
	return positional > 0 && named == 0
}

// Mixed reports whether named and positional fields appear side by side.
func (o *Object) Mixed() bool {
	named, positional := o.shape()
	return named > 0 && positional > 0
}

func (o *Object) shape() (named, positional int) {
	if o == nil {
		return 0, 0
	}
	for _, f := range o.Fields {
		if f.Named {
			named++
		} else {
			positional++
		}
	}
	return named, positional
}

// Get returns the last field with the given name.
func (o *Object) Get(name string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	for i := len(o.Fields) - 1; i >= 0; i-- {
		if o.Fields[i].Named && o.Fields[i].Name == name {
			return o.Fields[i].Value, true
		}
	}
	return Value{}, false
}

func (o *Object) String() string {
	var b strings.Builder
	o.write(&b)
	return b.String()
}

func (o *Object) write(b *strings.Builder) {
	b.WriteByte('{')
	if o != nil {
		for i, f := range o.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			if f.Named {
				b.WriteString(f.Name)
				b.WriteString(" = ")
			}
			f.Value.write(b)
		}
	}
	b.WriteByte('}')
}
