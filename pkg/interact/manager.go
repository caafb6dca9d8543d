// Package interact tracks hover state across the region and point layers.
//
// A [Manager] holds at most one active target. Pointer events from the
// renderer are fed in as Enter, Move and Leave calls; the manager decides
// which of them change the visible tooltip:
//
//   - Enter replaces the current target; targets never stack.
//   - Leave clears the tooltip only when it names the current target, so a
//     late leave from a neighbour does not hide the new tooltip.
//   - Move only updates the position. Tooltip text is computed once, on Enter.
//   - Point markers sit on top of regions. While a point is hovered, events
//     for the region under the marker are ignored; a point Enter always
//     wins. Entering any other region replaces the marker, so a fast move
//     off the marker is not lost when its leave arrives late.
//     When the source cannot tell which region holds the marker, every
//     region event is ignored while the marker is hovered.
//
// After a Leave the text and target are cleared but the last position is kept.
//
// A Manager is driven from a single event loop and is not safe for
// concurrent use.
package interact

import (
	"context"

	"github.com/matzehuels/choropleth/pkg/observability"
)

// TextSource produces tooltip text for a target.
type TextSource interface {
	RegionText(id string) string
	PointText(id string) string
}

// PointLocator is implemented by text sources that know which region a
// point marker sits on.
type PointLocator interface {
	PointRegion(id string) (string, bool)
}

// Options configures a Manager.
type Options struct {
	// OnChange is called after every change of the active target.
	OnChange func(from, to Target)

	// Context is passed to interaction hooks. Defaults to context.Background.
	Context context.Context
}

// Manager is the hover state machine.
type Manager struct {
	src  TextSource
	opts Options

	current Target
	text    string
	pos     Position
}

// NewManager returns an idle manager that asks src for tooltip text.
func NewManager(src TextSource, opts Options) *Manager {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Manager{src: src, opts: opts}
}

// Enter handles the pointer entering t at pos.
func (m *Manager) Enter(t Target, pos Position) {
	if t.IsNone() {
		return
	}
	if t.Kind == KindRegion && m.underMarker(t) {
		return
	}
	m.pos = pos
	if t == m.current {
		return
	}
	m.set(t, m.textFor(t))
}

// Move handles pointer movement over t. Only the current target moves the tooltip.
func (m *Manager) Move(t Target, pos Position) {
	if t.IsNone() || t != m.current {
		return
	}
	m.pos = pos
}

// Leave handles the pointer leaving t at pos.
// The position is recorded and kept after the tooltip is cleared.
func (m *Manager) Leave(t Target, pos Position) {
	if t.IsNone() || t != m.current {
		return
	}
	m.pos = pos
	m.set(None, "")
}

// Current returns the active target, or None.
func (m *Manager) Current() Target { return m.current }

// Position returns the last recorded pointer position.
func (m *Manager) Position() Position { return m.pos }

// Tooltip returns the visible tooltip. The second result is false when idle.
func (m *Manager) Tooltip() (Tooltip, bool) {
	if m.current.IsNone() {
		return Tooltip{}, false
	}
	return Tooltip{Target: m.current, Text: m.text, Position: m.pos}, true
}

// Reset returns the manager to its initial idle state.
func (m *Manager) Reset() {
	if !m.current.IsNone() {
		m.set(None, "")
	}
	m.pos = Position{}
}

// State is the part of a Manager that outlives a single event loop, such as
// an HTTP hover session between requests.
type State struct {
	Target   Target   `json:"target"`
	Position Position `json:"position"`
}

// State returns the active target and last position.
func (m *Manager) State() State {
	return State{Target: m.current, Position: m.pos}
}

// Restore puts the manager into s without firing hooks or OnChange.
// Tooltip text is looked up again for the restored target.
func (m *Manager) Restore(s State) {
	m.current, m.pos = s.Target, s.Position
	m.text = ""
	if !s.Target.IsNone() {
		m.text = m.textFor(s.Target)
	}
}

func (m *Manager) set(t Target, text string) {
	from := m.current
	m.current, m.text = t, text
	observability.Interaction().OnHoverChange(m.opts.Context, from.Kind.String(), t.Kind.String())
	if m.opts.OnChange != nil {
		m.opts.OnChange(from, t)
	}
}

// underMarker reports whether region t lies beneath the hovered point.
func (m *Manager) underMarker(t Target) bool {
	if m.current.Kind != KindPoint {
		return false
	}
	loc, ok := m.src.(PointLocator)
	if !ok {
		return true
	}
	region, ok := loc.PointRegion(m.current.ID)
	if !ok {
		return true
	}
	return region == t.ID
}

func (m *Manager) textFor(t Target) string {
	if m.src == nil {
		return t.ID
	}
	switch t.Kind {
	case KindRegion:
		return m.src.RegionText(t.ID)
	case KindPoint:
		return m.src.PointText(t.ID)
	}
	return ""
}
