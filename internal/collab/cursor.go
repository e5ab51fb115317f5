package collab

// CursorMode is what the local pointer overlay is doing.
type CursorMode int

const (
	CursorHidden CursorMode = iota
	CursorChat
	CursorReactionSelector
	CursorReaction
)

func (m CursorMode) String() string {
	switch m {
	case CursorChat:
		return "chat"
	case CursorReactionSelector:
		return "reaction-selector"
	case CursorReaction:
		return "reaction"
	}
	return "hidden"
}

// CursorState is the local overlay state. PreviousMessage and Message are
// used in chat mode, Reaction and IsPressed in reaction mode.
type CursorState struct {
	Mode            CursorMode
	PreviousMessage string
	Message         string
	Reaction        string
	IsPressed       bool
}

// Key names delivered by the platform layer.
const (
	KeySlash     = "/"
	KeyE         = "e"
	KeyEscape    = "Escape"
	KeyEnter     = "Enter"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyZ         = "z"
	KeyY         = "y"
	KeyC         = "c"
	KeyV         = "v"
)

// Key is one key event with its modifiers. Ctrl and Meta are treated alike.
type Key struct {
	Name  string
	Ctrl  bool
	Meta  bool
	Shift bool
}

func (k Key) command() bool { return k.Ctrl || k.Meta }

// Command is an action a key or menu item resolves to.
type Command int

const (
	CmdNone Command = iota
	CmdDeleteSelection
	CmdClearCanvas
	CmdUndo
	CmdRedo
	CmdCopy
	CmdPaste
	CmdOpenChat
	CmdOpenReactions
	CmdClose
	CmdSubmitChat
	CmdChatEdited
)

// Reactions offered by the picker.
var Reactions = []string{"👍", "🔥", "😍", "👀", "😱", "🙁"}

// MenuItem is one entry of the canvas context menu.
type MenuItem struct {
	Name     string
	Shortcut string
}

var ContextMenu = []MenuItem{
	{Name: "Chat", Shortcut: "/"},
	{Name: "Reactions", Shortcut: "E"},
	{Name: "Undo", Shortcut: "⌘Z"},
	{Name: "Redo", Shortcut: "⇧⌘Z"},
}

// MenuCommand maps a context menu entry to its command.
func MenuCommand(name string) Command {
	switch name {
	case "Chat":
		return CmdOpenChat
	case "Reactions":
		return CmdOpenReactions
	case "Undo":
		return CmdUndo
	case "Redo":
		return CmdRedo
	}
	return CmdNone
}

// CursorMachine holds the overlay state and resolves keys into commands.
type CursorMachine struct {
	state CursorState
}

func NewCursorMachine() *CursorMachine {
	return &CursorMachine{}
}

func (c *CursorMachine) State() CursorState { return c.state }

func (c *CursorMachine) Mode() CursorMode { return c.state.Mode }

// KeyDown resolves editing chords. suppress is true for keys whose platform
// default must not run.
func (c *CursorMachine) KeyDown(k Key, editingText bool) (cmd Command, suppress bool) {
	if c.state.Mode == CursorChat {
		switch k.Name {
		case KeyBackspace:
			if r := []rune(c.state.Message); len(r) > 0 {
				c.state.Message = string(r[:len(r)-1])
			}
			return CmdChatEdited, true
		case KeyEnter:
			c.state.PreviousMessage = c.state.Message
			c.state.Message = ""
			return CmdSubmitChat, true
		}
		return CmdNone, false
	}
	if k.Name == KeySlash && !k.command() {
		return CmdNone, true
	}
	if editingText {
		return CmdNone, false
	}
	if k.command() {
		switch k.Name {
		case KeyZ:
			if k.Shift {
				return CmdRedo, true
			}
			return CmdUndo, true
		case KeyY:
			return CmdRedo, true
		case KeyC:
			return CmdCopy, true
		case KeyV:
			return CmdPaste, true
		case KeyBackspace, KeyDelete:
			if k.Shift {
				return CmdClearCanvas, true
			}
		}
		return CmdNone, false
	}
	if k.Name == KeyDelete || k.Name == KeyBackspace {
		return CmdDeleteSelection, true
	}
	return CmdNone, false
}

// KeyUp drives the overlay modes.
func (c *CursorMachine) KeyUp(k Key, editingText bool) Command {
	if k.command() {
		return CmdNone
	}
	switch k.Name {
	case KeyEscape:
		if c.state.Mode == CursorHidden && !editingText {
			return CmdNone
		}
		c.Hide()
		return CmdClose
	case KeySlash:
		if c.state.Mode == CursorChat || editingText {
			return CmdNone
		}
		c.OpenChat()
		return CmdOpenChat
	case KeyE:
		if c.state.Mode == CursorChat || editingText {
			return CmdNone
		}
		c.OpenReactionSelector()
		return CmdOpenReactions
	}
	return CmdNone
}

// TypeRune appends r to the chat message. It reports false outside chat mode.
func (c *CursorMachine) TypeRune(r rune) bool {
	if c.state.Mode != CursorChat {
		return false
	}
	c.state.Message += string(r)
	return true
}

func (c *CursorMachine) OpenChat() {
	c.state = CursorState{Mode: CursorChat}
}

func (c *CursorMachine) OpenReactionSelector() {
	c.state = CursorState{Mode: CursorReactionSelector}
}

// SelectReaction leaves the picker and starts reacting with value.
func (c *CursorMachine) SelectReaction(value string) {
	c.state = CursorState{Mode: CursorReaction, Reaction: value}
}

func (c *CursorMachine) Hide() {
	c.state = CursorState{Mode: CursorHidden}
}

func (c *CursorMachine) PointerDown() {
	if c.state.Mode == CursorReaction {
		c.state.IsPressed = true
	}
}

func (c *CursorMachine) PointerUp() {
	if c.state.Mode == CursorReaction {
		c.state.IsPressed = false
	}
}

// Emitting returns the reaction to broadcast while the pointer is held.
func (c *CursorMachine) Emitting() (string, bool) {
	if c.state.Mode == CursorReaction && c.state.IsPressed {
		return c.state.Reaction, true
	}
	return "", false
}

// CapturesPointer reports whether pointer presses belong to the overlay
// rather than the canvas.
func (c *CursorMachine) CapturesPointer() bool {
	return c.state.Mode == CursorReaction || c.state.Mode == CursorReactionSelector
}
