// Package palette provides sequential color ramps for choropleth classes.
//
// A [Ramp] is a continuous light-to-dark color function over t ∈ [0, 1],
// built from ColorBrewer stops and interpolated with go-colorful. [Sample]
// cuts a ramp into the K discrete colors used by a classification scale,
// lightest first.
//
// Colors are carried as normalized lowercase "#rrggbb" strings so they can
// be compared directly and serialized without conversion.
package palette

import (
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// Color is a normalized "#rrggbb" hex color.
type Color string

// Default colors for features without data, region borders, and the hover highlight.
const (
	DefaultFallback    Color   = "#eeeeee"
	DefaultStroke      Color   = "#ffffff"
	DefaultStrokeWidth float64 = 0.5
	DefaultHover       Color   = "#087ed8"
)

// DefaultRamp is the ramp used when no palette is configured.
const DefaultRamp = "greens"

// maxSpan is the portion of a ramp that sampled palettes cover. The darkest
// end of the ColorBrewer ramps is too dark for labels drawn on top of fills.
const maxSpan = 0.8

// rampStops holds the nine ColorBrewer sequential stops per ramp, light to dark.
var rampStops = map[string][]string{
	"greens":  {"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#006d2c", "#00441b"},
	"blues":   {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
	"oranges": {"#fff5eb", "#fee6ce", "#fdd0a2", "#fdae6b", "#fd8d3c", "#f16913", "#d94801", "#a63603", "#7f2704"},
	"reds":    {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
	"purples": {"#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8", "#807dba", "#6a51a3", "#54278f", "#3f007d"},
	"greys":   {"#ffffff", "#f0f0f0", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525", "#000000"},
}

// Ramp is a continuous sequential color scheme.
type Ramp struct {
	Name  string
	stops []colorful.Color
}

// Names returns the available ramp names in sorted order.
func Names() []string {
	names := make([]string, 0, len(rampStops))
	for name := range rampStops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named ramp. Names are case-insensitive.
func Lookup(name string) (Ramp, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	hexes, ok := rampStops[key]
	if !ok {
		return Ramp{}, errors.New(errors.ErrCodeInvalidPalette, "unknown palette %q (must be one of: %s)", name, strings.Join(Names(), ", "))
	}
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return Ramp{}, errors.Wrap(errors.ErrCodeInternal, err, "ramp %s stop %d", key, i)
		}
		stops[i] = c
	}
	return Ramp{Name: key, stops: stops}, nil
}

// At returns the ramp color at t, clamped to [0, 1].
// Colors between stops are blended linearly in RGB.
func (r Ramp) At(t float64) Color {
	if len(r.stops) == 0 {
		return DefaultFallback
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	pos := t * float64(len(r.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(r.stops)-1 {
		return Color(r.stops[len(r.stops)-1].Clamped().Hex())
	}
	return Color(r.stops[i].BlendRgb(r.stops[i+1], pos-float64(i)).Clamped().Hex())
}

// Sample returns k colors from r, lightest first.
//
// Color i is taken at t = 0.8·i/(k-1), so nine classes sample the ramp at
// 0, 0.1, …, 0.8. A single class gets the lightest color. k ≤ 0 yields nil.
func Sample(r Ramp, k int) []Color {
	if k <= 0 {
		return nil
	}
	colors := make([]Color, k)
	if k == 1 {
		colors[0] = r.At(0)
		return colors
	}
	for i := range colors {
		colors[i] = r.At(maxSpan * float64(i) / float64(k-1))
	}
	return colors
}

// Parse normalizes a "#rgb" or "#rrggbb" color (with or without the leading '#').
func Parse(s string) (Color, error) {
	h := strings.TrimSpace(s)
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	if len(h) == 4 {
		h = "#" + strings.Repeat(h[1:2], 2) + strings.Repeat(h[2:3], 2) + strings.Repeat(h[3:4], 2)
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPalette, err, "invalid color %q", s)
	}
	return Color(c.Hex()), nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks that the fallback color cannot be confused with a class color.
// A feature without data must never look like a feature in the lowest class.
func Validate(colors []Color, fallback Color) error {
	for i, c := range colors {
		if strings.EqualFold(string(c), string(fallback)) {
			return errors.New(errors.ErrCodeInvalidPalette, "fallback color %s equals class %d color", fallback, i)
		}
	}
	return nil
}

// RGB returns the 8-bit components of c, or zeros if c is malformed.
func (c Color) RGB() (r, g, b uint8) {
	cc, err := colorful.Hex(string(c))
	if err != nil {
		return 0, 0, 0
	}
	return cc.Clamped().RGB255()
}

// String returns the hex representation.
func (c Color) String() string { return string(c) }
