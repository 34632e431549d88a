package ui

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Widget selects how a field is drawn.
type Widget int

const (
	WidgetLabel Widget = iota
	WidgetBar
	WidgetBool
	WidgetSkip
)

// Field is one exported struct field prepared for a panel row.
//
// Rows are driven by an inspect tag:
//
//	`inspect:"bar,max:200"`
//	`inspect:"label,fmt:%.1f"`
//	`inspect:"skip"`
//
// Untagged bools become WidgetBool, everything else WidgetLabel.
type Field struct {
	Name   string
	Value  any
	Widget Widget
	Format string  // fmt verb for labels
	Max    float32 // full scale for bars

	index []int
}

var widgetNames = map[string]Widget{
	"label": WidgetLabel,
	"bar":   WidgetBar,
	"bool":  WidgetBool,
	"skip":  WidgetSkip,
}

// fieldsCache holds the row layout per struct type. Panels run on the
// render goroutine only.
var fieldsCache = map[reflect.Type][]Field{}

func layout(t reflect.Type) []Field {
	if l, ok := fieldsCache[t]; ok {
		return l
	}
	var l []Field
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		f := Field{Name: sf.Name, Max: 1, index: sf.Index}
		tag, hasTag := sf.Tag.Lookup("inspect")
		parts := strings.Split(tag, ",")
		if w, ok := widgetNames[strings.TrimSpace(parts[0])]; ok {
			f.Widget = w
		} else if !hasTag && sf.Type.Kind() == reflect.Bool {
			f.Widget = WidgetBool
		}
		if f.Widget == WidgetSkip {
			continue
		}
		for _, opt := range parts[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(opt), ":")
			if !ok {
				continue
			}
			switch k {
			case "fmt":
				f.Format = v
			case "max":
				if m, err := strconv.ParseFloat(v, 32); err == nil && m > 0 {
					f.Max = float32(m)
				}
			}
		}
		l = append(l, f)
	}
	fieldsCache[t] = l
	return l
}

// extractFields returns the rows of a struct or struct pointer.
func extractFields(v any) []Field {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	l := layout(rv.Type())
	out := make([]Field, len(l))
	for i, f := range l {
		out[i] = f
		out[i].Value = rv.FieldByIndex(f.index).Interface()
	}
	return out
}

// text renders a label value; floats default to two decimals.
func (f Field) text() string {
	if f.Format != "" {
		return fmt.Sprintf(f.Format, f.Value)
	}
	switch v := f.Value.(type) {
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(f.Value)
}

// float reads numeric values for bars.
func (f Field) float() float32 {
	rv := reflect.ValueOf(f.Value)
	switch {
	case rv.CanFloat():
		return float32(rv.Float())
	case rv.CanInt():
		return float32(rv.Int())
	case rv.CanUint():
		return float32(rv.Uint())
	}
	return 0
}
