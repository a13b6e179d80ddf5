package modal

// Command is an action input adapters invoke.
type Command interface {
	Execute(via Trigger)
}

type closeCommand struct {
	m *Modal
}

func (c closeCommand) Execute(via Trigger) {
	c.m.close(via)
}

// Closer returns the command that closes m.
func (m *Modal) Closer() Command {
	return closeCommand{m: m}
}

// PointerAdapter closes on a click on the dimmed backdrop.
func PointerAdapter(cmd Command) func() {
	return func() { cmd.Execute(TriggerBackdrop) }
}

// ControlAdapter closes on the explicit close button.
func ControlAdapter(cmd Command) func() {
	return func() { cmd.Execute(TriggerButton) }
}

// KeyAdapter closes on Escape and ignores every other key.
func KeyAdapter(cmd Command) func(key string) {
	return func(key string) {
		if key == KeyEscape {
			cmd.Execute(TriggerEscape)
		}
	}
}

// Adapter returns the input adapter for a non-keyboard trigger. ok is false
// for triggers that are not click driven.
func Adapter(cmd Command, via Trigger) (fn func(), ok bool) {
	switch via {
	case TriggerBackdrop:
		return PointerAdapter(cmd), true
	case TriggerButton:
		return ControlAdapter(cmd), true
	}
	return nil, false
}
