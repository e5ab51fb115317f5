package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveCanvas/internal/collab"
)

// fillPalette is offered as one-click fills for the selected shape.
var fillPalette = []string{"#aabbcc", "#000000", "#DC2626", "#D97706", "#059669", "#2563EB", "#7C3AED", "#FFFFFF"}

var toolLabels = []struct {
	tool  collab.Tool
	label string
}{
	{collab.ToolSelect, "Select"},
	{collab.ToolRectangle, "Rectangle"},
	{collab.ToolEllipse, "Circle"},
	{collab.ToolTriangle, "Triangle"},
	{collab.ToolLine, "Line"},
	{collab.ToolFreeform, "Pencil"},
	{collab.ToolText, "Text"},
}

type colorSwatch struct {
	widget.BaseWidget
	hex      string
	OnTapped func(hex string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{hex: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(parseColor(s.hex, color.Black))
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.hex)
	}
}

// Toolbar is the top bar: tool choice, history buttons, image import and
// fill swatches.
type Toolbar struct {
	root    fyne.CanvasObject
	tools   *widget.RadioGroup
	undo    *widget.Button
	redo    *widget.Button
	actions *widget.Toolbar
	syncing bool
}

func NewToolbar(post func(collab.Event) bool, importImage func()) *Toolbar {
	t := &Toolbar{}
	labels := make([]string, 0, len(toolLabels))
	for _, tl := range toolLabels {
		labels = append(labels, tl.label)
	}
	t.tools = widget.NewRadioGroup(labels, func(label string) {
		if t.syncing {
			return
		}
		for _, tl := range toolLabels {
			if tl.label == label {
				post(collab.ToolSelected{Tool: tl.tool})
			}
		}
	})
	t.tools.Horizontal = true
	t.tools.Required = true

	t.undo = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() {
		post(collab.MenuSelected{Name: "Undo"})
	})
	t.redo = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() {
		post(collab.MenuSelected{Name: "Redo"})
	})
	t.undo.Importance = widget.LowImportance
	t.redo.Importance = widget.LowImportance
	t.actions = widget.NewToolbar(
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			post(collab.KeyDown{Key: collab.Key{Name: collab.KeyDelete}})
		}),
		widget.NewToolbarAction(theme.FileImageIcon(), func() {
			post(collab.ToolSelected{Tool: collab.ToolImage})
			importImage()
		}),
	)

	swatches := container.NewHBox()
	for _, hex := range fillPalette {
		swatches.Add(newColorSwatch(hex, func(h string) {
			post(collab.ShapeModified{Property: "fill", Value: h})
		}))
	}

	t.root = container.NewHBox(
		t.tools,
		widget.NewSeparator(),
		t.undo,
		t.redo,
		t.actions,
		widget.NewSeparator(),
		widget.NewLabel("Fill:"),
		swatches,
		layout.NewSpacer(),
	)
	return t
}

func (t *Toolbar) Object() fyne.CanvasObject { return t.root }

// Update reflects the session view. Must run on the fyne thread.
func (t *Toolbar) Update(v collab.View) {
	t.syncing = true
	defer func() { t.syncing = false }()
	for _, tl := range toolLabels {
		if tl.tool == v.Tool {
			t.tools.SetSelected(tl.label)
		}
	}
	if v.CanUndo {
		t.undo.Enable()
	} else {
		t.undo.Disable()
	}
	if v.CanRedo {
		t.redo.Enable()
	} else {
		t.redo.Disable()
	}
}
