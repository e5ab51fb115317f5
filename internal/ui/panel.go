package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveCanvas/internal/collab"
)

var attributeFields = []struct {
	property string
	label    string
	value    func(collab.Attributes) string
}{
	{"width", "Width", func(a collab.Attributes) string { return a.Width }},
	{"height", "Height", func(a collab.Attributes) string { return a.Height }},
	{"fill", "Fill", func(a collab.Attributes) string { return a.Fill }},
	{"stroke", "Stroke", func(a collab.Attributes) string { return a.Stroke }},
	{"fontSize", "Font size", func(a collab.Attributes) string { return a.FontSize }},
	{"fontFamily", "Font", func(a collab.Attributes) string { return a.FontFamily }},
	{"fontWeight", "Weight", func(a collab.Attributes) string { return a.FontWeight }},
}

// sidePanel shows the selected shape's attributes, the layers and who is in
// the room.
type sidePanel struct {
	root    fyne.CanvasObject
	entries []*widget.Entry
	layers  []collab.Layer
	list    *widget.List
	users   *widget.Label
	status  *widget.Label
	focused func() fyne.Focusable
}

func newSidePanel(post func(collab.Event) bool, shareLink string, copyLink func(string), focused func() fyne.Focusable) *sidePanel {
	p := &sidePanel{
		users:   widget.NewLabel(""),
		status:  widget.NewLabel("Offline"),
		focused: focused,
	}
	form := widget.NewForm()
	for _, f := range attributeFields {
		e := widget.NewEntry()
		property := f.property
		e.OnSubmitted = func(v string) {
			post(collab.ShapeModified{Property: property, Value: strings.TrimSpace(v)})
		}
		p.entries = append(p.entries, e)
		form.Append(f.label, e)
	}

	p.list = widget.NewList(
		func() int { return len(p.layers) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id < len(p.layers) {
				l := p.layers[id]
				o.(*widget.Label).SetText(fmt.Sprintf("%s  %s", l.Kind, shortID(l.ObjectID)))
			}
		},
	)

	top := container.NewVBox(
		widget.NewLabelWithStyle("Attributes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		widget.NewSeparator(),
		p.status,
		p.users,
	)
	if shareLink != "" {
		top.Add(container.NewBorder(nil, nil, nil,
			widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() { copyLink(shareLink) }),
			widget.NewLabel(shareLink)))
	}
	top.Add(widget.NewSeparator())
	top.Add(widget.NewLabelWithStyle("Layers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	p.root = container.NewBorder(top, nil, nil, nil, p.list)
	return p
}

func (p *sidePanel) Object() fyne.CanvasObject { return p.root }

// Update reflects the session view. Must run on the fyne thread.
func (p *sidePanel) Update(v collab.View) {
	for i, f := range attributeFields {
		e := p.entries[i]
		if p.focused != nil && p.focused() == e {
			continue
		}
		if want := f.value(v.Attributes); e.Text != want {
			e.SetText(want)
		}
	}
	p.layers = v.Layers
	p.list.Refresh()

	if v.Connected {
		p.status.SetText("Connected")
	} else {
		p.status.SetText("Offline, reconnecting…")
	}
	p.users.SetText(usersLabel(v.ActiveUsers))
}

func usersLabel(ids []int) string {
	if len(ids) == 0 {
		return "No one here"
	}
	names := make([]string, 0, len(ids))
	for i, id := range ids {
		if i == 0 {
			names = append(names, fmt.Sprintf("you (#%d)", id))
			continue
		}
		names = append(names, fmt.Sprintf("#%d", id))
	}
	return "Users: " + strings.Join(names, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// reactionBar is shown while the reaction selector is open.
type reactionBar struct {
	root *fyne.Container
}

func newReactionBar(post func(collab.Event) bool) *reactionBar {
	bar := container.NewHBox(widget.NewLabel("React:"))
	for _, r := range collab.Reactions {
		value := r
		bar.Add(widget.NewButton(value, func() {
			post(collab.ReactionChosen{Value: value})
		}))
	}
	bar.Hide()
	return &reactionBar{root: bar}
}

func (r *reactionBar) Update(v collab.View) {
	if v.Cursor.Mode == collab.CursorReactionSelector {
		r.root.Show()
	} else {
		r.root.Hide()
	}
}
