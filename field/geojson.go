package field

import (
	"encoding/json"
	"fmt"

	"github.com/katalvlaran/repfield/planar"
)

// RGeoJSON: a GeoJSON-flavored interchange format where every feature
// carries a repulsion metric next to its geometry, and ellipse kinds
// additionally carry a shape matrix.

// Version is the RGeoJSON dialect marker.
const Version = "2D"

// FeatureCollection is the persisted form of a PotentialField.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Version  string    `json:"_version_"`
	Features []Feature `json:"features"`
	// BBox, when present, records the field extent as
	// [xmin, ymin, xmax, ymax].
	BBox []float64 `json:"bbox,omitempty"`
}

// Feature wraps one geometry with its passthrough properties.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   GeometryDoc    `json:"geometry"`
}

// GeometryDoc is the wire form of a single geometry. Coordinates stays
// raw because its shape depends on Type; Repulsion defaults to the
// identity when absent; Shape is required for ellipse kinds; Geometries
// replaces Coordinates for collections.
type GeometryDoc struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Repulsion   [][]float64     `json:"repulsion,omitempty"`
	Shape       json.RawMessage `json:"shape,omitempty"`
	Geometries  []GeometryDoc   `json:"geometries,omitempty"`
}

// ToGeoJSON encodes the field as a feature collection. With includeBBox
// the field extent is recorded; that requires a placed field.
func (f *PotentialField) ToGeoJSON(includeBBox bool) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Version: Version}
	for _, g := range f.rgjs {
		doc, err := g.encode()
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Properties: g.Properties(),
			Geometry:   *doc,
		})
	}
	if includeBBox {
		extent, err := f.Extent(0)
		if err != nil {
			return nil, err
		}
		fc.BBox = []float64{extent[0], extent[2], extent[1], extent[3]}
	}

	return fc, nil
}

// MarshalGeoJSON encodes the field as RGeoJSON bytes.
func (f *PotentialField) MarshalGeoJSON(includeBBox bool) ([]byte, error) {
	fc, err := f.ToGeoJSON(includeBBox)
	if err != nil {
		return nil, err
	}

	return json.Marshal(fc)
}

// FromGeoJSON builds a field from a decoded feature collection.
func FromGeoJSON(fc *FeatureCollection, opts ...FieldOption) (*PotentialField, error) {
	rgjs := make([]Geometry, 0, len(fc.Features))
	for i := range fc.Features {
		g, err := decodeGeometry(&fc.Features[i].Geometry, fc.Features[i].Properties, false)
		if err != nil {
			return nil, err
		}
		rgjs = append(rgjs, g)
	}

	return NewPotentialField(rgjs, opts...), nil
}

// UnmarshalGeoJSON decodes RGeoJSON bytes into a field.
func UnmarshalGeoJSON(data []byte, opts ...FieldOption) (*PotentialField, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("field: decoding RGeoJSON: %w", err)
	}

	return FromGeoJSON(&fc, opts...)
}

// geomOptions assembles constructor options from wire attributes.
func geomOptions(doc *GeometryDoc, props map[string]any) ([]GeomOption, error) {
	var opts []GeomOption
	if doc.Repulsion != nil {
		a, err := toMat2(doc.Repulsion)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRepulsion(a))
	}
	if props != nil {
		opts = append(opts, WithProperties(props))
	}

	return opts, nil
}

func toMat2(rows [][]float64) (planar.Mat2, error) {
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 2 {
		return planar.Mat2{}, fmt.Errorf("field: matrix must be 2×2, got %d rows", len(rows))
	}

	return planar.Mat2{{rows[0][0], rows[0][1]}, {rows[1][0], rows[1][1]}}, nil
}

func fromMat2(m planar.Mat2) [][]float64 {
	return [][]float64{{m[0][0], m[0][1]}, {m[1][0], m[1][1]}}
}

func decodeShape(raw json.RawMessage) (planar.Mat2, error) {
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return planar.Mat2{}, fmt.Errorf("field: decoding shape: %w", err)
	}

	return toMat2(rows)
}

func decodeShapes(raw json.RawMessage) ([]planar.Mat2, error) {
	var all [][][]float64
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("field: decoding shapes: %w", err)
	}
	out := make([]planar.Mat2, len(all))
	for i, rows := range all {
		m, err := toMat2(rows)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}

	return out, nil
}

func decodeCoords[T any](raw json.RawMessage, what string) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("field: decoding %s coordinates: %w", what, err)
	}

	return out, nil
}

// decodeGeometry builds a concrete geometry from its wire form. nested
// guards against collections inside collections.
func decodeGeometry(doc *GeometryDoc, props map[string]any, nested bool) (Geometry, error) {
	opts, err := geomOptions(doc, props)
	if err != nil {
		return nil, err
	}

	switch doc.Type {
	case KindPoint.String():
		c, err := decodeCoords[planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}

		return NewPoint(c, opts...)

	case KindLineString.String():
		coords, err := decodeCoords[[]planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}

		return NewLineString(coords, opts...)

	case KindRectangle.String():
		corners, err := decodeCoords[[2]planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}

		return NewRectangle(corners[0], corners[1], opts...)

	case KindEllipse.String():
		c, err := decodeCoords[planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}
		shape, err := decodeShape(doc.Shape)
		if err != nil {
			return nil, err
		}

		return NewEllipse(c, shape, opts...)

	case KindMultiPoint.String():
		coords, err := decodeCoords[[]planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}

		return NewMultiPoint(coords, opts...)

	case KindMultiLineString.String():
		lines, err := decodeCoords[[][]planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}

		return NewMultiLineString(lines, opts...)

	case KindMultiRectangle.String():
		rects, err := decodeCoords[[][2]planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}

		return NewMultiRectangle(rects, opts...)

	case KindMultiEllipse.String():
		centers, err := decodeCoords[[]planar.Vec2](doc.Coordinates, doc.Type)
		if err != nil {
			return nil, err
		}
		shapes, err := decodeShapes(doc.Shape)
		if err != nil {
			return nil, err
		}

		return NewMultiEllipse(centers, shapes, opts...)

	case KindGeometryCollection.String():
		if nested {
			return nil, ErrNestedCollection
		}
		subs := make([]Geometry, 0, len(doc.Geometries))
		for i := range doc.Geometries {
			sub, err := decodeGeometry(&doc.Geometries[i], nil, true)
			if err != nil {
				return nil, err
			}
			subs = append(subs, sub)
		}

		return NewGeometryCollection(subs, opts...)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeometryType, doc.Type)
	}
}

func marshalCoords(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("field: encoding coordinates: %w", err)
	}

	return raw, nil
}

func (g *Point) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.coord)
	if err != nil {
		return nil, err
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion)}, nil
}

func (g *LineString) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.coords)
	if err != nil {
		return nil, err
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion)}, nil
}

func (g *Rectangle) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords([2]planar.Vec2{g.c0, g.c1})
	if err != nil {
		return nil, err
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion)}, nil
}

func (g *Ellipse) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.coord)
	if err != nil {
		return nil, err
	}
	shape, err := json.Marshal(fromMat2(g.shape))
	if err != nil {
		return nil, fmt.Errorf("field: encoding shape: %w", err)
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion), Shape: shape}, nil
}

func (g *MultiPoint) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.coords)
	if err != nil {
		return nil, err
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion)}, nil
}

func (g *MultiLineString) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.lines)
	if err != nil {
		return nil, err
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion)}, nil
}

func (g *MultiRectangle) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.rects)
	if err != nil {
		return nil, err
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion)}, nil
}

func (g *MultiEllipse) encode() (*GeometryDoc, error) {
	coords, err := marshalCoords(g.centers)
	if err != nil {
		return nil, err
	}
	all := make([][][]float64, len(g.shapes))
	for i, s := range g.shapes {
		all[i] = fromMat2(s)
	}
	shape, err := json.Marshal(all)
	if err != nil {
		return nil, fmt.Errorf("field: encoding shapes: %w", err)
	}

	return &GeometryDoc{Type: g.Kind().String(), Coordinates: coords, Repulsion: fromMat2(g.repulsion), Shape: shape}, nil
}

func (g *GeometryCollection) encode() (*GeometryDoc, error) {
	docs := make([]GeometryDoc, 0, len(g.geoms))
	for _, sub := range g.geoms {
		doc, err := sub.encode()
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	return &GeometryDoc{Type: g.Kind().String(), Geometries: docs}, nil
}
