// Package modal implements the project detail dialog: one project at a time,
// or nothing.
package modal

import (
	"errors"

	"github.com/okbk/onepage/internal/content"
)

// ErrNoProject is returned when opening the dialog without a project.
var ErrNoProject = errors.New("modal: no project selected")

// State is the dialog's lifecycle state.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Trigger names the input that asked the dialog to close.
type Trigger string

const (
	TriggerButton   Trigger = "button"
	TriggerBackdrop Trigger = "backdrop"
	TriggerEscape   Trigger = "escape"
)

// Modal is the dialog state machine. The Escape listener is attached to the
// keyboard only while the dialog is open.
type Modal struct {
	state    State
	selected *content.Project
	keys     *Keyboard
	release  func()
	onClose  func(Trigger)
}

// New returns a closed Modal listening on keys while open.
func New(keys *Keyboard) *Modal {
	return &Modal{keys: keys}
}

// OnClose registers a hook run after every close, with the trigger that caused it.
func (m *Modal) OnClose(fn func(Trigger)) {
	m.onClose = fn
}

// State returns the current state.
func (m *Modal) State() State {
	return m.state
}

// IsOpen reports whether the dialog is open.
func (m *Modal) IsOpen() bool {
	return m.state == Open
}

// Selected returns the last selected project, which may be stale after a close.
func (m *Modal) Selected() *content.Project {
	return m.selected
}

// Open selects p and then opens the dialog. Opening while already open
// replaces the project.
func (m *Modal) Open(p *content.Project) error {
	if p == nil {
		return ErrNoProject
	}
	m.selected = p
	m.state = Open
	if m.release == nil && m.keys != nil {
		m.release = m.keys.Listen(KeyAdapter(m.Closer()))
	}
	return nil
}

// Close is the single close operation every trigger converges on.
func (m *Modal) Close() {
	m.close("")
}

func (m *Modal) close(via Trigger) {
	if m.state == Closed {
		return
	}
	m.state = Closed
	m.detach()
	if m.onClose != nil {
		m.onClose(via)
	}
}

// Dispose releases the key listener. It is called on unmount and is safe in
// either state.
func (m *Modal) Dispose() {
	m.state = Closed
	m.detach()
}

func (m *Modal) detach() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
}

// View returns the project to render. When the dialog is closed there is
// nothing to render and ok is false.
func (m *Modal) View() (p *content.Project, ok bool) {
	if m.state != Open || m.selected == nil {
		return nil, false
	}
	return m.selected, true
}
