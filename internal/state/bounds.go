package state

import "math"

// Rect is an axis-aligned area on the canvas.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Overlaps reports whether the two areas intersect.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.X+r.Width < o.X || o.X+o.Width < r.X ||
		r.Y+r.Height < o.Y || o.Y+o.Height < r.Y)
}

// Union returns the smallest area covering both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Pad grows the area by d on every side.
func (r Rect) Pad(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Corner returns the bottom-right corner, where the resize handle sits.
func (r Rect) Corner() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Bounds computes the canvas area covered by a record. Rotation is ignored.
func Bounds(rec ShapeRecord) Rect {
	sx, sy := scale(rec.ScaleX), scale(rec.ScaleY)
	switch rec.Kind {
	case KindEllipse:
		d := 2 * rec.Radius
		return Rect{X: rec.Left, Y: rec.Top, Width: d * sx, Height: d * sy}
	case KindLine:
		return pointsRect([]Point{{X: rec.X1, Y: rec.Y1}, {X: rec.X2, Y: rec.Y2}})
	case KindPath:
		if len(rec.Points) == 0 {
			return Rect{X: rec.Left, Y: rec.Top}
		}
		return pointsRect(rec.Points)
	case KindText:
		size := rec.FontSize
		if size <= 0 {
			size = 16
		}
		w := rec.Width
		if w <= 0 {
			w = 0.6 * size * float64(len([]rune(rec.Text)))
		}
		h := rec.Height
		if h <= 0 {
			h = 1.2 * size
		}
		return Rect{X: rec.Left, Y: rec.Top, Width: w * sx, Height: h * sy}
	default:
		return Rect{X: rec.Left, Y: rec.Top, Width: rec.Width * sx, Height: rec.Height * sy}
	}
}

func pointsRect(points []Point) Rect {
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func scale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
