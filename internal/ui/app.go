package ui

import (
	"context"
	"errors"
	"io"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"pkt.systems/pslog"

	"LiveCanvas/internal/collab"
	"LiveCanvas/internal/logx"
)

// AppID identifies the desktop client to fyne preferences.
const AppID = "io.livecanvas.desktop"

// Options configures the desktop client window.
type Options struct {
	Title     string
	ShareLink string
	Session   collab.Options
	// Connect keeps the room link running until ctx is done.
	Connect func(ctx context.Context, s *collab.Session) error
	Logger  pslog.Logger
}

// Run opens the board window and blocks until it is closed or ctx is done.
func Run(ctx context.Context, opts Options) error {
	log := logx.OrDefault(opts.Logger)
	if opts.Title == "" {
		opts.Title = "LiveCanvas"
	}

	a := app.NewWithID(AppID)
	w := a.NewWindow(opts.Title)
	w.Resize(fyne.NewSize(1280, 800))

	board := NewBoardWidget()
	var sess *collab.Session
	post := func(ev collab.Event) bool { return sess.Post(ev) }

	importImage := func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if r == nil {
				post(collab.ToolSelected{Tool: collab.ToolSelect})
				return
			}
			defer r.Close()
			data, err := io.ReadAll(r)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			src, width, height, err := imageDataURI(data)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			post(collab.ImageImported{Src: src, Width: width, Height: height})
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif"}))
		d.Show()
	}

	toolbar := NewToolbar(post, importImage)
	panel := newSidePanel(post, opts.ShareLink, func(link string) {
		w.Clipboard().SetContent(link)
	}, func() fyne.Focusable { return w.Canvas().Focused() })
	reactions := newReactionBar(post)

	sopts := opts.Session
	sopts.Logger = log
	sopts.OnView = func(v collab.View) {
		if board.closing.Load() {
			return
		}
		fyne.Do(func() {
			toolbar.Update(v)
			panel.Update(v)
			reactions.Update(v)
		})
	}
	s, err := collab.NewSession(board, sopts)
	if err != nil {
		return err
	}
	sess = s
	board.Post = post
	board.OnContextMenu = func(pos fyne.Position) {
		items := make([]*fyne.MenuItem, 0, len(collab.ContextMenu))
		for _, item := range collab.ContextMenu {
			name := item.Name
			items = append(items, fyne.NewMenuItem(name+"    "+item.Shortcut, func() {
				post(collab.MenuSelected{Name: name})
			}))
		}
		abs := a.Driver().AbsolutePositionForObject(board).Add(pos)
		widget.ShowPopUpMenuAtPosition(fyne.NewMenu("", items...), w.Canvas(), abs)
	}

	w.SetContent(container.NewBorder(
		toolbar.Object(),
		reactions.root,
		nil,
		container.NewGridWrap(fyne.NewSize(260, 760), panel.Object()),
		board,
	))
	w.Canvas().Focus(board)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sess.Run(runCtx); err != nil {
			log.Error("session stopped", "err", err)
		}
	}()
	if opts.Connect != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := opts.Connect(runCtx, sess); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("room link stopped", "err", err)
			}
		}()
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			board.Close()
			fyne.Do(a.Quit)
		case <-finished:
		}
	}()

	log.Info("board window opened", "title", opts.Title)
	w.ShowAndRun()
	close(finished)
	board.Close()
	cancel()
	wg.Wait()
	return nil
}
