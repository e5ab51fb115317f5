package state

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ShapeKind string

const (
	KindRectangle ShapeKind = "rectangle"
	KindEllipse   ShapeKind = "ellipse"
	KindTriangle  ShapeKind = "triangle"
	KindLine      ShapeKind = "line"
	KindPath      ShapeKind = "path"
	KindText      ShapeKind = "text"
	KindImage     ShapeKind = "image"
)

// Kinds lists every shape kind in toolbar order.
var Kinds = []ShapeKind{KindRectangle, KindEllipse, KindTriangle, KindLine, KindPath, KindText, KindImage}

// ShapeRecord is the flat, serializable form of one canvas object as it is
// stored in the shared table.
type ShapeRecord struct {
	ObjectID string    `json:"objectId"`
	Kind     ShapeKind `json:"type"`

	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Angle  float64 `json:"angle,omitempty"`
	ScaleX float64 `json:"scaleX,omitempty"`
	ScaleY float64 `json:"scaleY,omitempty"`

	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	Points []Point `json:"points,omitempty"`

	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`

	// Src references the pixel data of an image (file path or data URI).
	Src string `json:"src,omitempty"`
}

// Clone returns a copy that shares no memory with r.
func (r ShapeRecord) Clone() ShapeRecord {
	if r.Points != nil {
		pts := make([]Point, len(r.Points))
		copy(pts, r.Points)
		r.Points = pts
	}
	return r
}

// PresenceRecord is the ephemeral per-connection state.
type PresenceRecord struct {
	Cursor  *Point  `json:"cursor"`
	Message *string `json:"message"`
}

// ReactionEvent is a broadcast emoji reaction. Timestamp is in unix milliseconds.
type ReactionEvent struct {
	Point     Point  `json:"point"`
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

type OpType string

const (
	OpPut    OpType = "put"
	OpDelete OpType = "delete"
)

// Op is one write against the shared table. A delete keeps its stamp as a
// tombstone so that older puts cannot resurrect the record.
type Op struct {
	Type     OpType       `json:"type"`
	ObjectID string       `json:"objectId"`
	Record   *ShapeRecord `json:"record,omitempty"`
	Stamp    Stamp        `json:"stamp"`
}

// Put builds an unstamped put op for rec.
func Put(rec ShapeRecord) Op {
	c := rec.Clone()
	return Op{Type: OpPut, ObjectID: rec.ObjectID, Record: &c}
}

// Delete builds an unstamped delete op.
func Delete(objectID string) Op {
	return Op{Type: OpDelete, ObjectID: objectID}
}
