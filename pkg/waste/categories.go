// Package waste defines the disposal categories and guidance used to
// translate classifier labels into user-facing disposal instructions.
package waste

import "fmt"

// Category identifies a disposal stream.
type Category string

// The four standard disposal streams.
const (
	Recyclable Category = "recyclable"
	Hazardous  Category = "hazardous"
	Food       Category = "food"
	Residual   Category = "residual"
	Unknown    Category = "unknown"
)

// Info describes a category for presentation collaborators.
type Info struct {
	Category    Category `json:"category"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Guidance    string   `json:"guidance"`
}

var categories = map[Category]Info{
	Recyclable: {
		Category:    Recyclable,
		Color:       "#0080ff",
		Icon:        "♻️",
		Description: "Material that can be reprocessed",
		Guidance:    "Rinse and place in the blue recyclables bin",
	},
	Hazardous: {
		Category:    Hazardous,
		Color:       "#ff0000",
		Icon:        "☠️",
		Description: "Material harmful to health or the environment",
		Guidance:    "Place in the red hazardous waste bin",
	},
	Food: {
		Category:    Food,
		Color:       "#8b4513",
		Icon:        "🥬",
		Description: "Perishable organic material",
		Guidance:    "Place in the brown food waste bin",
	},
	Residual: {
		Category:    Residual,
		Color:       "#808080",
		Icon:        "🗑️",
		Description: "Everything that fits no other stream",
		Guidance:    "Place in the black residual waste bin",
	},
	Unknown: {
		Category:    Unknown,
		Color:       "#808080",
		Icon:        "❓",
		Description: "Could not be classified",
		Guidance:    "Ask a member of staff",
	},
}

// Lookup returns the Info for a category. Unrecognized categories
// resolve to Unknown so callers always get usable guidance.
func Lookup(c Category) Info {
	if info, ok := categories[c]; ok {
		return info
	}
	return categories[Unknown]
}

// All returns every registered category except Unknown.
func All() []Info {
	return []Info{
		categories[Recyclable],
		categories[Hazardous],
		categories[Food],
		categories[Residual],
	}
}

// Valid reports whether c is a registered category.
func Valid(c Category) bool {
	_, ok := categories[c]
	return ok
}

// Mapping translates classifier class names to disposal categories.
type Mapping map[string]Category

// DefaultMapping covers the classes emitted by the bundled classifier.
func DefaultMapping() Mapping {
	return Mapping{
		"plastic_bottle": Recyclable,
		"paper":          Recyclable,
		"battery":        Hazardous,
		"food_waste":     Food,
		"other":          Residual,
	}
}

// Categorize maps a class name to its category, falling back to Unknown.
func (m Mapping) Categorize(className string) Category {
	if c, ok := m[className]; ok {
		return c
	}
	return Unknown
}

// ParseCategory normalizes a category string from an external source.
// Returns an error for values not in the registry.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !Valid(c) {
		return Unknown, fmt.Errorf("waste: unknown category %q", s)
	}
	return c, nil
}
