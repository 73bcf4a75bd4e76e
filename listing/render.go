// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package listing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type SectionKind int

const (
	KindText SectionKind = iota
	KindBullets
)

// Item is one bullet. Label is set for key/value pairs.
type Item struct {
	Label string
	Value string
}

// Section is a listing section ready for display
type Section struct {
	Name  string
	Title string
	Kind  SectionKind
	Text  string
	Items []Item
}

// Render turns a listing into display sections:
//   - empty content is skipped
//   - lists become bullets
//   - objects become "Key: value" bullets, keys title-cased, in service order
//   - anything else is plain text
//
// Section titles replace underscores with spaces and are title-cased.
func Render(l *Listing) []Section {
	sections := make([]Section, 0, l.Len())

	for _, name := range l.names {
		content := l.values[name]
		if isEmpty(content) {
			continue
		}

		s := Section{Name: name, Title: SectionTitle(name)}
		switch v := content.(type) {
		case []any:
			s.Kind = KindBullets
			for _, item := range v {
				s.Items = append(s.Items, Item{Value: formatValue(item)})
			}
		case *Listing:
			s.Kind = KindBullets
			for _, k := range v.names {
				s.Items = append(s.Items, Item{Label: titleCase(k), Value: formatValue(v.values[k])})
			}
		default:
			s.Kind = KindText
			s.Text = formatValue(v)
		}
		sections = append(sections, s)
	}

	return sections
}

// SectionTitle converts "product_description" to "Product Description"
func SectionTitle(name string) string {
	return titleCase(strings.ReplaceAll(name, "_", " "))
}

func titleCase(s string) string {
	// Casers keep state, so one per call
	return cases.Title(language.Und).String(s)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	case []any:
		return len(t) == 0
	case *Listing:
		return t.Len() == 0
	}
	return false
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any, *Listing:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
