package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCanvas/internal/collab"
	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, parseColor("#aabbcc", color.Black))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, parseColor("#f00", color.Black))
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, parseColor("#01020304", color.Black))
	assert.Equal(t, color.Black, parseColor("red", color.Black))
	assert.Equal(t, color.Black, parseColor("#zzzzzz", color.Black))
}

func TestKeyName(t *testing.T) {
	cases := map[fyne.KeyName]string{
		fyne.KeySlash:     collab.KeySlash,
		fyne.KeyE:         collab.KeyE,
		fyne.KeyReturn:    collab.KeyEnter,
		fyne.KeyBackspace: collab.KeyBackspace,
		fyne.KeyZ:         collab.KeyZ,
	}
	for in, want := range cases {
		got, ok := keyName(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := keyName(fyne.KeyQ)
	assert.False(t, ok)
}

func TestImageDataURIRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	src, w, h, err := imageDataURI(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 40.0, w)
	assert.Equal(t, 30.0, h)
	assert.Contains(t, src, "data:image/png;base64,")

	data, err := decodeDataURI(src)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), data)

	_, err = decodeDataURI("https://example.com/a.png")
	assert.ErrorIs(t, err, errNotDataURI)
	_, _, _, err = imageDataURI([]byte("not an image"))
	assert.Error(t, err)
}

func TestBoardWidgetModifierChords(t *testing.T) {
	test.NewTempApp(t)
	b := NewBoardWidget()
	var got []collab.Event
	b.Post = func(ev collab.Event) bool {
		got = append(got, ev)
		return true
	}

	b.KeyDown(&fyne.KeyEvent{Name: desktop.KeyControlLeft})
	b.KeyDown(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	b.KeyDown(&fyne.KeyEvent{Name: fyne.KeyZ})
	b.KeyUp(&fyne.KeyEvent{Name: desktop.KeyShiftLeft})
	b.KeyUp(&fyne.KeyEvent{Name: fyne.KeyZ})
	b.KeyDown(&fyne.KeyEvent{Name: fyne.KeyQ})

	require.Len(t, got, 2)
	assert.Equal(t, collab.KeyDown{Key: collab.Key{Name: collab.KeyZ, Ctrl: true, Shift: true}}, got[0])
	assert.Equal(t, collab.KeyUp{Key: collab.Key{Name: collab.KeyZ, Ctrl: true}}, got[1])
}

func TestBoardWidgetPointerUsesPan(t *testing.T) {
	test.NewTempApp(t)
	b := NewBoardWidget()
	var got []collab.Event
	b.Post = func(ev collab.Event) bool {
		got = append(got, ev)
		return true
	}
	b.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DX: 10, DY: 20}})
	b.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(50, 50)}})
	b.MouseOut()

	require.Len(t, got, 2)
	assert.Equal(t, collab.PointerMove{Point: state.Point{X: 40, Y: 30}}, got[0])
	assert.Equal(t, collab.PointerLeave{}, got[1])
}

func TestBoardWidgetRendersFrames(t *testing.T) {
	test.NewTempApp(t)
	b := NewBoardWidget()
	r := test.WidgetRenderer(b)
	require.Len(t, r.Objects(), 1, "only the background")

	rect := &scene.Object{ObjectID: "r", Kind: state.KindRectangle, Left: 10, Top: 10, Width: 50, Height: 40, Fill: "#aabbcc"}
	line := &scene.Object{ObjectID: "l", Kind: state.KindLine, X1: 0, Y1: 0, X2: 30, Y2: 30}
	b.Add(rect)
	b.Add(line)
	b.SetActiveObject(rect)
	b.RequestRender()
	r.Refresh()

	objects := r.Objects()
	require.Len(t, objects, 1+1+1+5, "background, rect, line segment, selection box with four handles")
	drawn, ok := objects[1].(*canvas.Rectangle)
	require.True(t, ok)
	assert.Equal(t, fyne.NewPos(10, 10), drawn.Position())
	assert.Equal(t, fyne.NewSize(50, 40), drawn.Size())

	rect.Left = 100
	r.Refresh()
	assert.Equal(t, fyne.NewPos(10, 10), r.Objects()[1].Position(), "frames are detached from live objects")

	b.SetOverlay(scene.Overlay{Cursors: []scene.Cursor{{ConnectionID: 2, Color: "#DC2626", X: 5, Y: 5}}})
	r.Refresh()
	assert.Len(t, r.Objects(), 1+1+1+5+1)

	b.Dispose()
	r.Refresh()
	assert.Len(t, r.Objects(), 1)
	assert.Empty(t, b.Objects())
}

func TestUsersLabel(t *testing.T) {
	assert.Equal(t, "No one here", usersLabel(nil))
	assert.Equal(t, "Users: you (#3), #1, #7", usersLabel([]int{3, 1, 7}))
}
