package geo

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/matzehuels/choropleth/pkg/errors"
)

// topology is the subset of the TopoJSON document model the decoder reads.
type topology struct {
	Type      string                  `json:"type"`
	Transform *transform              `json:"transform,omitempty"`
	Objects   map[string]topoGeometry `json:"objects"`
	Arcs      [][][]float64           `json:"arcs"`
}

type transform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoGeometry struct {
	Type        string          `json:"type"`
	ID          any             `json:"id,omitempty"`
	Properties  map[string]any  `json:"properties,omitempty"`
	Arcs        json.RawMessage `json:"arcs,omitempty"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []topoGeometry  `json:"geometries,omitempty"`
}

// DecodeTopoJSON decodes a TopoJSON topology into features.
//
// Geometry collections are flattened so that each member geometry becomes
// one feature. Arcs are delta-decoded when the topology is quantized.
func DecodeTopoJSON(data []byte, opts Options) (*FeatureSet, error) {
	var topo topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTopology, err, "decode TopoJSON")
	}
	if topo.Type != "Topology" {
		return nil, errors.New(errors.ErrCodeInvalidTopology, "document type is %q, want Topology", topo.Type)
	}

	names, err := objectNames(topo, opts.Object)
	if err != nil {
		return nil, err
	}

	d := &topoDecoder{arcs: decodeArcs(topo.Arcs, topo.Transform), transform: topo.Transform}
	name := opts.nameProperty()

	var features []Feature
	for _, obj := range names {
		geoms := flatten(topo.Objects[obj])
		for _, g := range geoms {
			geom, err := d.geometry(g)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTopology, err, "object %q", obj)
			}
			props := g.Properties
			if props == nil {
				props = map[string]any{}
			}
			features = append(features, Feature{
				RegionID:   regionID(props, g.ID, name),
				Geometry:   geom,
				Properties: props,
			})
		}
	}
	return newFeatureSet(features, data, opts), nil
}

func objectNames(topo topology, object string) ([]string, error) {
	if object != "" {
		if _, ok := topo.Objects[object]; !ok {
			available := make([]string, 0, len(topo.Objects))
			for k := range topo.Objects {
				available = append(available, k)
			}
			sort.Strings(available)
			return nil, errors.New(errors.ErrCodeNotFound, "topology has no object %q (available: %v)", object, available)
		}
		return []string{object}, nil
	}
	names := make([]string, 0, len(topo.Objects))
	for k := range topo.Objects {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// flatten expands geometry collections, recursively, into their members.
func flatten(g topoGeometry) []topoGeometry {
	if g.Type != "GeometryCollection" {
		return []topoGeometry{g}
	}
	var out []topoGeometry
	for _, member := range g.Geometries {
		out = append(out, flatten(member)...)
	}
	return out
}

// decodeArcs converts arcs to absolute positions.
// Quantized topologies store arcs as deltas from the previous position.
func decodeArcs(raw [][][]float64, t *transform) [][]orb.Point {
	arcs := make([][]orb.Point, len(raw))
	for i, arc := range raw {
		points := make([]orb.Point, 0, len(arc))
		var x, y float64
		for _, pos := range arc {
			if len(pos) < 2 {
				continue
			}
			if t == nil {
				points = append(points, orb.Point{pos[0], pos[1]})
				continue
			}
			x += pos[0]
			y += pos[1]
			points = append(points, orb.Point{
				x*t.Scale[0] + t.Translate[0],
				y*t.Scale[1] + t.Translate[1],
			})
		}
		arcs[i] = points
	}
	return arcs
}

type topoDecoder struct {
	arcs      [][]orb.Point
	transform *transform
}

func (d *topoDecoder) geometry(g topoGeometry) (orb.Geometry, error) {
	switch g.Type {
	case "", "null":
		return nil, nil
	case "Point":
		var pos []float64
		if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
			return nil, fmt.Errorf("point coordinates: %w", err)
		}
		return d.position(pos)
	case "MultiPoint":
		var positions [][]float64
		if err := json.Unmarshal(g.Coordinates, &positions); err != nil {
			return nil, fmt.Errorf("multipoint coordinates: %w", err)
		}
		mp := make(orb.MultiPoint, 0, len(positions))
		for _, pos := range positions {
			p, err := d.position(pos)
			if err != nil {
				return nil, err
			}
			mp = append(mp, p)
		}
		return mp, nil
	case "LineString":
		var refs []int
		if err := json.Unmarshal(g.Arcs, &refs); err != nil {
			return nil, fmt.Errorf("linestring arcs: %w", err)
		}
		line, err := d.line(refs)
		return orb.LineString(line), err
	case "MultiLineString":
		var refs [][]int
		if err := json.Unmarshal(g.Arcs, &refs); err != nil {
			return nil, fmt.Errorf("multilinestring arcs: %w", err)
		}
		mls := make(orb.MultiLineString, 0, len(refs))
		for _, r := range refs {
			line, err := d.line(r)
			if err != nil {
				return nil, err
			}
			mls = append(mls, orb.LineString(line))
		}
		return mls, nil
	case "Polygon":
		var refs [][]int
		if err := json.Unmarshal(g.Arcs, &refs); err != nil {
			return nil, fmt.Errorf("polygon arcs: %w", err)
		}
		return d.polygon(refs)
	case "MultiPolygon":
		var refs [][][]int
		if err := json.Unmarshal(g.Arcs, &refs); err != nil {
			return nil, fmt.Errorf("multipolygon arcs: %w", err)
		}
		mp := make(orb.MultiPolygon, 0, len(refs))
		for _, r := range refs {
			poly, err := d.polygon(r)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func (d *topoDecoder) position(pos []float64) (orb.Point, error) {
	if len(pos) < 2 {
		return orb.Point{}, fmt.Errorf("position needs two coordinates, got %d", len(pos))
	}
	if d.transform == nil {
		return orb.Point{pos[0], pos[1]}, nil
	}
	return orb.Point{
		pos[0]*d.transform.Scale[0] + d.transform.Translate[0],
		pos[1]*d.transform.Scale[1] + d.transform.Translate[1],
	}, nil
}

func (d *topoDecoder) polygon(rings [][]int) (orb.Polygon, error) {
	poly := make(orb.Polygon, 0, len(rings))
	for _, refs := range rings {
		line, err := d.line(refs)
		if err != nil {
			return nil, err
		}
		poly = append(poly, orb.Ring(line))
	}
	return poly, nil
}

// line stitches arcs into one path. A negative reference ~i means arc i
// reversed. Consecutive arcs share an endpoint, which is emitted once.
func (d *topoDecoder) line(refs []int) ([]orb.Point, error) {
	var out []orb.Point
	for _, ref := range refs {
		idx, reverse := ref, false
		if ref < 0 {
			idx, reverse = ^ref, true
		}
		if idx >= len(d.arcs) {
			return nil, fmt.Errorf("arc %d out of range (%d arcs)", idx, len(d.arcs))
		}
		arc := d.arcs[idx]
		if len(out) > 0 && len(arc) > 0 {
			out = out[:len(out)-1]
		}
		if reverse {
			for i := len(arc) - 1; i >= 0; i-- {
				out = append(out, arc[i])
			}
		} else {
			out = append(out, arc...)
		}
	}
	return out, nil
}
