package interact

import (
	"strings"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// Kind identifies the layer a hover target belongs to.
type Kind int

const (
	KindNone Kind = iota
	KindRegion
	KindPoint
)

var kindNames = [...]string{
	KindNone:   "none",
	KindRegion: "region",
	KindPoint:  "point",
}

// String returns "none", "region" or "point".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses a layer name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "region":
		return KindRegion, nil
	case "point", "marker":
		return KindPoint, nil
	case "", "none":
		return KindNone, nil
	}
	return KindNone, errors.New(errors.ErrCodeInvalidEvent, "unknown target kind %q (want region or point)", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name accepted by ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Target is the thing under the pointer: a region, a point marker, or nothing.
// Behaviour always dispatches on Kind.
type Target struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// None is the empty target.
var None = Target{}

// Region returns a region target.
func Region(id string) Target { return Target{Kind: KindRegion, ID: id} }

// Point returns a point marker target.
func Point(id string) Target { return Target{Kind: KindPoint, ID: id} }

// IsNone reports whether t is the empty target.
func (t Target) IsNone() bool { return t.Kind == KindNone }

func (t Target) String() string {
	if t.IsNone() {
		return "none"
	}
	return t.Kind.String() + ":" + t.ID
}

// Position is a screen position in renderer pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TooltipOffset is added to the pointer position when placing a tooltip,
// so the tooltip does not sit under the cursor.
var TooltipOffset = Position{X: 10, Y: 10}

// Tooltip is the visible hover annotation.
type Tooltip struct {
	Target   Target   `json:"target"`
	Text     string   `json:"text"`
	Position Position `json:"position"`
}

// Anchor returns the top-left corner at which the tooltip is drawn.
func (t Tooltip) Anchor() Position {
	return Position{X: t.Position.X + TooltipOffset.X, Y: t.Position.Y + TooltipOffset.Y}
}
