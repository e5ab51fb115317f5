package scene

import "LiveCanvas/internal/state"

// Object is the engine's native representation of one drawn shape. The
// engine itself never looks at ObjectID; it is a tag carried for the store
// adapter.
type Object struct {
	ObjectID string

	Kind           state.ShapeKind
	Left, Top      float64
	Width, Height  float64
	Radius         float64
	Angle          float64
	ScaleX, ScaleY float64
	X1, Y1, X2, Y2 float64
	Points         []state.Point
	Fill, Stroke   string
	StrokeWidth    float64
	Opacity        float64
	Text           string
	FontFamily     string
	FontSize       float64
	FontWeight     string
	Src            string
}

// ToRecord is the engine-native serialization. It does not know about the
// object id.
func (o *Object) ToRecord() state.ShapeRecord {
	rec := state.ShapeRecord{
		Kind:        o.Kind,
		Left:        o.Left,
		Top:         o.Top,
		Width:       o.Width,
		Height:      o.Height,
		Radius:      o.Radius,
		Angle:       o.Angle,
		ScaleX:      o.ScaleX,
		ScaleY:      o.ScaleY,
		X1:          o.X1,
		Y1:          o.Y1,
		X2:          o.X2,
		Y2:          o.Y2,
		Points:      o.Points,
		Fill:        o.Fill,
		Stroke:      o.Stroke,
		StrokeWidth: o.StrokeWidth,
		Opacity:     o.Opacity,
		Text:        o.Text,
		FontFamily:  o.FontFamily,
		FontSize:    o.FontSize,
		FontWeight:  o.FontWeight,
		Src:         o.Src,
	}
	return rec.Clone()
}

// SetFromRecord restores geometry and style in place, keeping the object's
// identity.
func (o *Object) SetFromRecord(rec state.ShapeRecord) {
	rec = rec.Clone()
	o.Kind = rec.Kind
	o.Left, o.Top = rec.Left, rec.Top
	o.Width, o.Height = rec.Width, rec.Height
	o.Radius = rec.Radius
	o.Angle = rec.Angle
	o.ScaleX, o.ScaleY = rec.ScaleX, rec.ScaleY
	o.X1, o.Y1, o.X2, o.Y2 = rec.X1, rec.Y1, rec.X2, rec.Y2
	o.Points = rec.Points
	o.Fill, o.Stroke = rec.Fill, rec.Stroke
	o.StrokeWidth = rec.StrokeWidth
	o.Opacity = rec.Opacity
	o.Text = rec.Text
	o.FontFamily, o.FontSize, o.FontWeight = rec.FontFamily, rec.FontSize, rec.FontWeight
	o.Src = rec.Src
}

// Bounds returns the area the object covers.
func (o *Object) Bounds() state.Rect {
	return state.Bounds(o.ToRecord())
}

// Translate moves the object by (dx, dy).
func (o *Object) Translate(dx, dy float64) {
	o.Left += dx
	o.Top += dy
	switch o.Kind {
	case state.KindLine:
		o.X1 += dx
		o.X2 += dx
		o.Y1 += dy
		o.Y2 += dy
	case state.KindPath:
		for i := range o.Points {
			o.Points[i].X += dx
			o.Points[i].Y += dy
		}
	}
}

// Copy returns a detached copy, used by renderers that draw on another thread.
func (o *Object) Copy() Object {
	c := *o
	if o.Points != nil {
		c.Points = append([]state.Point(nil), o.Points...)
	}
	return c
}
