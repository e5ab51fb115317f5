package ui

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

const (
	handleSize   = 8
	cursorRadius = 6
)

var (
	selectionColor = color.NRGBA{R: 0x25, G: 0x63, B: 0xEB, A: 0xFF}
	bubbleColor    = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xE6}
)

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	images     map[string]*canvas.Image
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Destroy() {}

func (r *boardWidgetRenderer) Refresh() {
	f := r.board.snapshot()
	pan := fyne.NewPos(r.board.panX, r.board.panY)
	objects := []fyne.CanvasObject{r.background}
	if !f.disposed {
		used := make(map[string]bool)
		for i := range f.objects {
			objects = append(objects, r.shape(&f.objects[i], pan, used)...)
		}
		for src := range r.images {
			if !used[src] {
				delete(r.images, src)
			}
		}
		if f.active != nil {
			objects = append(objects, selection(f.active.Bounds(), pan)...)
		}
		objects = append(objects, overlay(f.overlay, pan)...)
	}
	r.objects = objects
	canvas.Refresh(r.board)
}

func at(p state.Point, pan fyne.Position) fyne.Position {
	return fyne.NewPos(float32(p.X)+pan.X, float32(p.Y)+pan.Y)
}

func (r *boardWidgetRenderer) shape(o *scene.Object, pan fyne.Position, used map[string]bool) []fyne.CanvasObject {
	fill := parseColor(o.Fill, color.Transparent)
	stroke := parseColor(o.Stroke, color.Black)
	width := float32(o.StrokeWidth)
	b := o.Bounds()
	pos := at(state.Point{X: b.X, Y: b.Y}, pan)
	size := fyne.NewSize(float32(b.Width), float32(b.Height))

	switch o.Kind {
	case state.KindRectangle:
		rect := canvas.NewRectangle(fill)
		rect.StrokeColor = stroke
		rect.StrokeWidth = width
		rect.Move(pos)
		rect.Resize(size)
		return []fyne.CanvasObject{rect}
	case state.KindEllipse:
		c := canvas.NewCircle(fill)
		c.StrokeColor = stroke
		c.StrokeWidth = width
		c.Move(pos)
		c.Resize(size)
		return []fyne.CanvasObject{c}
	case state.KindTriangle:
		apex := state.Point{X: b.X + b.Width/2, Y: b.Y}
		left := state.Point{X: b.X, Y: b.Y + b.Height}
		right := state.Point{X: b.X + b.Width, Y: b.Y + b.Height}
		edge := fill
		if _, _, _, a := fill.RGBA(); a == 0 {
			edge = stroke
		}
		return polyline([]state.Point{apex, right, left, apex}, edge, max(width, 2), pan)
	case state.KindLine:
		return polyline([]state.Point{{X: o.X1, Y: o.Y1}, {X: o.X2, Y: o.Y2}}, stroke, max(width, 1), pan)
	case state.KindPath:
		return polyline(o.Points, stroke, max(width, 1), pan)
	case state.KindText:
		t := canvas.NewText(o.Text, parseColor(o.Fill, color.Black))
		t.TextSize = float32(o.FontSize)
		t.TextStyle.Bold = isBold(o.FontWeight)
		t.Move(pos)
		return []fyne.CanvasObject{t}
	case state.KindImage:
		img := r.image(o.Src)
		if img == nil {
			return nil
		}
		used[o.Src] = true
		img.Move(pos)
		img.Resize(size)
		return []fyne.CanvasObject{img}
	}
	return nil
}

func (r *boardWidgetRenderer) image(src string) *canvas.Image {
	if img, ok := r.images[src]; ok {
		return img
	}
	data, err := decodeDataURI(src)
	if err != nil {
		return nil
	}
	img := canvas.NewImageFromReader(bytes.NewReader(data), "image")
	img.FillMode = canvas.ImageFillStretch
	r.images[src] = img
	return img
}

func polyline(points []state.Point, c color.Color, width float32, pan fyne.Position) []fyne.CanvasObject {
	var out []fyne.CanvasObject
	for i := 0; i+1 < len(points); i++ {
		seg := canvas.NewLine(c)
		seg.StrokeWidth = width
		seg.Position1 = at(points[i], pan)
		seg.Position2 = at(points[i+1], pan)
		out = append(out, seg)
	}
	return out
}

func selection(b state.Rect, pan fyne.Position) []fyne.CanvasObject {
	box := canvas.NewRectangle(color.Transparent)
	box.StrokeColor = selectionColor
	box.StrokeWidth = 1
	box.Move(at(state.Point{X: b.X, Y: b.Y}, pan))
	box.Resize(fyne.NewSize(float32(b.Width), float32(b.Height)))
	out := []fyne.CanvasObject{box}
	for _, c := range []state.Point{
		{X: b.X, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y},
		{X: b.X, Y: b.Y + b.Height},
		{X: b.X + b.Width, Y: b.Y + b.Height},
	} {
		h := canvas.NewRectangle(color.White)
		h.StrokeColor = selectionColor
		h.StrokeWidth = 1
		h.Move(at(state.Point{X: c.X - handleSize/2, Y: c.Y - handleSize/2}, pan))
		h.Resize(fyne.NewSize(handleSize, handleSize))
		out = append(out, h)
	}
	return out
}

func overlay(ov scene.Overlay, pan fyne.Position) []fyne.CanvasObject {
	var out []fyne.CanvasObject
	for _, rc := range ov.Reactions {
		t := canvas.NewText(rc.Value, color.Black)
		t.TextSize = 28
		t.Move(at(state.Point{X: rc.X, Y: rc.Y}, pan))
		out = append(out, t)
	}
	for _, c := range ov.Cursors {
		col := parseColor(c.Color, color.Black)
		dot := canvas.NewCircle(col)
		dot.Move(at(state.Point{X: c.X - cursorRadius, Y: c.Y - cursorRadius}, pan))
		dot.Resize(fyne.NewSize(2*cursorRadius, 2*cursorRadius))
		out = append(out, dot)
		if c.Message != "" {
			out = append(out, bubble(c.Message, state.Point{X: c.X + 12, Y: c.Y + 12}, col, pan)...)
		}
	}
	if ov.Chat != nil {
		text := ov.Chat.Message
		if text == "" {
			text = "Say something…"
		}
		p := state.Point{X: ov.Chat.X + 12, Y: ov.Chat.Y + 12}
		if ov.Chat.PreviousMessage != "" {
			out = append(out, bubble(ov.Chat.PreviousMessage, p, bubbleColor, pan)...)
			p.Y += 28
		}
		out = append(out, bubble(text, p, bubbleColor, pan)...)
	}
	return out
}

func bubble(msg string, p state.Point, bg color.Color, pan fyne.Position) []fyne.CanvasObject {
	t := canvas.NewText(msg, color.White)
	t.TextSize = 14
	size := t.MinSize()
	rect := canvas.NewRectangle(bg)
	rect.CornerRadius = 10
	rect.Move(at(p, pan))
	rect.Resize(fyne.NewSize(size.Width+16, size.Height+8))
	t.Move(at(state.Point{X: p.X + 8, Y: p.Y + 4}, pan))
	return []fyne.CanvasObject{rect, t}
}

// parseColor reads #rgb, #rrggbb and #rrggbbaa. Anything else yields def.
func parseColor(s string, def color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = fmt.Sprintf("%c%c%c%c%c%c", s[0], s[0], s[1], s[1], s[2], s[2])
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func isBold(weight string) bool {
	if weight == "bold" {
		return true
	}
	n, err := strconv.Atoi(weight)
	return err == nil && n >= 600
}
