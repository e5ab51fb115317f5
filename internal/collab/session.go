package collab

import (
	"context"
	"errors"
	"time"

	"pkt.systems/pslog"

	"LiveCanvas/internal/logx"
	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// ErrNoEngine is returned when a session is started without a rendering engine.
var ErrNoEngine = errors.New("collab: rendering engine unavailable")

// Options configures a Session. Zero values pick the defaults.
type Options struct {
	Link             Link
	Clock            *state.Clock
	Logger           pslog.Logger
	Now              func() time.Time
	NewID            func() string
	ReactionInterval time.Duration
	PruneInterval    time.Duration
	ReactionTTL      time.Duration
	InboxSize        int
	// OnView is called from the loop after every event that changed what a
	// toolbar or side panel shows.
	OnView func(View)
}

// Layer is one entry of the layers panel.
type Layer struct {
	ObjectID string
	Kind     state.ShapeKind
}

// View is the state surrounding widgets display.
type View struct {
	Tool        Tool
	Attributes  Attributes
	Cursor      CursorState
	Layers      []Layer
	ActiveUsers []int
	Connected   bool
	CanUndo     bool
	CanRedo     bool
}

// Session is one client's collaboration engine. All of its state is owned
// by the goroutine running Run; other goroutines talk to it with Post.
type Session struct {
	engine      scene.Engine
	replica     *Replica
	store       *ShapeStore
	reconciler  *Reconciler
	interaction *Interaction
	cursor      *CursorMachine
	presence    *PresenceBoard
	reactions   *ReactionStream
	link        Link
	log         pslog.Logger
	now         func() time.Time
	opts        Options

	inbox     chan Event
	done      chan struct{}
	connected bool
	pointer   *state.Point

	overlayDirty bool
	viewDirty    bool
}

// NewSession wires a session around engine.
func NewSession(engine scene.Engine, opts Options) (*Session, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	if opts.Link == nil {
		opts.Link = offlineLink{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReactionInterval <= 0 {
		opts.ReactionInterval = ReactionInterval
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = PruneInterval
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	log := logx.OrDefault(opts.Logger)
	replica := NewReplica(opts.Clock, opts.Link, log)
	store := NewShapeStore(replica)
	return &Session{
		engine:      engine,
		replica:     replica,
		store:       store,
		reconciler:  NewReconciler(engine),
		interaction: NewInteraction(engine, store, opts.NewID),
		cursor:      NewCursorMachine(),
		presence:    NewPresenceBoard(),
		reactions:   NewReactionStream(opts.ReactionTTL),
		link:        opts.Link,
		log:         logx.WithSite(log, replica.Site()),
		now:         opts.Now,
		opts:        opts,
		inbox:       make(chan Event, opts.InboxSize),
		done:        make(chan struct{}),
	}, nil
}

func (s *Session) Replica() *Replica { return s.replica }

func (s *Session) Interaction() *Interaction { return s.interaction }

func (s *Session) Cursor() *CursorMachine { return s.cursor }

func (s *Session) Presence() *PresenceBoard { return s.presence }

func (s *Session) Reactions() *ReactionStream { return s.reactions }

func (s *Session) Connected() bool { return s.connected }

// Post queues ev for the loop. It returns false once the loop has stopped.
func (s *Session) Post(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Run processes events and timer ticks until ctx is cancelled, then disposes
// the engine.
func (s *Session) Run(ctx context.Context) error {
	emit := time.NewTicker(s.opts.ReactionInterval)
	prune := time.NewTicker(s.opts.PruneInterval)
	defer func() {
		emit.Stop()
		prune.Stop()
		close(s.done)
		s.engine.Dispose()
		s.log.Info("session stopped")
	}()
	s.log.Info("session started")
	s.Dispatch(PruneTick{Now: s.now()})
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.inbox:
			s.Dispatch(ev)
		case <-emit.C:
			s.Dispatch(EmitTick{Now: s.now()})
		case <-prune.C:
			s.Dispatch(PruneTick{Now: s.now()})
		}
	}
}

// Dispatch handles one event synchronously. It must only be called from the
// loop, or from tests that drive the session directly.
func (s *Session) Dispatch(ev Event) {
	switch e := ev.(type) {
	case PointerDown:
		s.pointerDown(e)
	case PointerMove:
		s.movePointer(e.Point)
		s.interaction.PointerMove(e.Point)
	case PointerUp:
		s.cursor.PointerUp()
		s.interaction.PointerUp()
		s.viewDirty = true
	case PointerLeave:
		s.pointer = nil
		s.interaction.PointerUp()
		s.cursor.Hide()
		s.presence.SetMessage(nil)
		s.presence.SetCursor(nil)
		s.sendPresence()
		s.overlayDirty = true
	case KeyDown:
		cmd, _ := s.cursor.KeyDown(e.Key, s.interaction.EditingText())
		if cmd == CmdNone && s.interaction.EditingText() {
			s.editTextKey(e.Key)
		}
		s.run(cmd)
	case KeyUp:
		s.run(s.cursor.KeyUp(e.Key, s.interaction.EditingText()))
	case TypedRune:
		if s.cursor.TypeRune(e.Rune) {
			s.run(CmdChatEdited)
		} else if s.interaction.TypeRune(e.Rune) {
			s.viewDirty = true
		}
	case ToolSelected:
		s.interaction.SelectTool(e.Tool)
		s.viewDirty = true
	case ObjectModified:
		s.interaction.ObjectModified(e.Object)
	case ShapeModified:
		s.interaction.ModifyShape(e.Property, e.Value)
		s.viewDirty = true
	case TextEdited:
		s.interaction.EditText(e.Text)
	case ReactionChosen:
		s.cursor.SelectReaction(e.Value)
		s.overlayDirty = true
	case MenuSelected:
		s.run(MenuCommand(e.Name))
	case ImageImported:
		if !s.interaction.ImportImage(e.Src, e.Width, e.Height) {
			s.log.Warn("image import ignored", "width", e.Width, "height", e.Height)
		}
		s.viewDirty = true
	case Welcome:
		s.connected = true
		s.presence.Reset(e.Self, e.Peers)
		s.replica.Resync(e.Snapshot)
		s.sendPresence()
		s.overlayDirty = true
		s.log.Info("joined room", "conn", e.Self, "peers", len(e.Peers), "records", len(e.Snapshot))
	case RemoteOps:
		s.replica.ApplyRemote(e.Ops)
	case PresenceChanged:
		s.presence.Upsert(e.ConnectionID, e.Presence)
		s.overlayDirty = true
	case PeerLeft:
		s.presence.Remove(e.ConnectionID)
		s.overlayDirty = true
		s.viewDirty = true
	case ReactionReceived:
		s.reactions.Add(e.Reaction)
		s.overlayDirty = true
	case Disconnected:
		if s.connected {
			s.log.Warn("disconnected from room", "err", e.Err)
		}
		s.connected = false
		s.replica.Unsync()
		s.presence.Forget()
		s.overlayDirty = true
		s.viewDirty = true
	case EmitTick:
		s.emitReaction(e.Now)
	case PruneTick:
		s.reactions.Prune(e.Now)
		s.overlayDirty = true
	}
	s.flush()
}

func (s *Session) pointerDown(e PointerDown) {
	if e.Secondary {
		return
	}
	s.movePointer(e.Point)
	if s.cursor.CapturesPointer() {
		s.cursor.PointerDown()
		return
	}
	s.interaction.PointerDown(e.Point)
	s.viewDirty = true
}

func (s *Session) movePointer(p state.Point) {
	pt := p
	s.pointer = &pt
	if s.cursor.Mode() == CursorReactionSelector && s.presence.Local().Cursor != nil {
		return
	}
	if s.presence.SetCursor(&pt) {
		s.sendPresence()
	}
	s.overlayDirty = true
}

func (s *Session) editTextKey(k Key) {
	switch k.Name {
	case KeyBackspace, KeyDelete:
		s.interaction.Backspace()
	case KeyEnter:
		s.interaction.FinishEditing()
		s.viewDirty = true
	}
}

func (s *Session) run(cmd Command) {
	switch cmd {
	case CmdNone:
		return
	case CmdDeleteSelection:
		s.interaction.DeleteSelection()
	case CmdClearCanvas:
		s.interaction.Reset()
	case CmdUndo:
		s.replica.Undo()
	case CmdRedo:
		s.replica.Redo()
	case CmdCopy:
		s.interaction.Copy()
	case CmdPaste:
		s.interaction.Paste()
	case CmdOpenChat:
		s.cursor.OpenChat()
		s.setMessage()
	case CmdOpenReactions:
		s.cursor.OpenReactionSelector()
		s.setMessage()
	case CmdClose:
		s.interaction.FinishEditing()
		s.setMessage()
	case CmdSubmitChat, CmdChatEdited:
		s.setMessage()
	}
	s.overlayDirty = true
	s.viewDirty = true
}

func (s *Session) setMessage() {
	var msg *string
	if st := s.cursor.State(); st.Mode == CursorChat {
		m := st.Message
		msg = &m
	}
	if s.presence.SetMessage(msg) {
		s.sendPresence()
	}
}

func (s *Session) sendPresence() {
	if err := s.link.SendPresence(s.presence.Local()); err != nil {
		s.log.Debug("presence not sent", "err", err)
	}
}

func (s *Session) emitReaction(now time.Time) {
	value, ok := s.cursor.Emitting()
	if !ok || s.pointer == nil {
		return
	}
	ev := state.ReactionEvent{Point: *s.pointer, Value: value, Timestamp: now.UnixMilli()}
	s.reactions.Add(ev)
	if err := s.link.SendBroadcast(ev); err != nil {
		s.log.Debug("reaction not sent", "err", err)
	}
	s.overlayDirty = true
}

// flush reconciles after table changes and pushes overlay and view updates.
func (s *Session) flush() {
	changes := s.replica.TakeChanges()
	if len(changes) > 0 || s.interaction.TakeDirty() {
		res := s.reconciler.Reconcile(s.replica.Records(), s.interaction.Protected())
		if !res.Empty() {
			s.log.Debug("scene reconciled", "added", len(res.Added), "updated", len(res.Updated), "removed", len(res.Removed))
		}
		s.viewDirty = true
	}
	if s.overlayDirty {
		s.overlayDirty = false
		s.engine.SetOverlay(s.overlay())
	}
	if s.viewDirty {
		s.viewDirty = false
		if s.opts.OnView != nil {
			s.opts.OnView(s.View())
		}
	}
}

func (s *Session) overlay() scene.Overlay {
	now := s.now()
	ov := scene.Overlay{Cursors: s.presence.Cursors()}
	for _, r := range s.reactions.Visible(now) {
		ov.Reactions = append(ov.Reactions, scene.Reaction{X: r.Point.X, Y: r.Point.Y, Value: r.Value, Timestamp: r.Timestamp})
	}
	st := s.cursor.State()
	switch st.Mode {
	case CursorChat:
		if s.pointer != nil {
			ov.Chat = &scene.Chat{X: s.pointer.X, Y: s.pointer.Y, PreviousMessage: st.PreviousMessage, Message: st.Message}
		}
	case CursorReactionSelector:
		ov.ReactionPicker = true
	case CursorReaction:
		ov.ReactionCursor = st.Reaction
	}
	return ov
}

// Layers lists the table's objects in id order.
func (s *Session) Layers() []Layer {
	records := s.replica.Records()
	out := make([]Layer, 0, len(records))
	for _, id := range s.replica.Keys() {
		out = append(out, Layer{ObjectID: id, Kind: records[id].Kind})
	}
	return out
}

// ActiveUsers returns our connection id followed by every peer's.
func (s *Session) ActiveUsers() []int {
	return s.presence.Connections()
}

// View snapshots what the surrounding widgets show.
func (s *Session) View() View {
	return View{
		Tool:        s.interaction.Tool(),
		Attributes:  s.interaction.Attributes(),
		Cursor:      s.cursor.State(),
		Layers:      s.Layers(),
		ActiveUsers: s.ActiveUsers(),
		Connected:   s.connected,
		CanUndo:     s.replica.CanUndo(),
		CanRedo:     s.replica.CanRedo(),
	}
}
