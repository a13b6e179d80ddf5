package modal

// KeyEscape is the key name browsers report for the Escape key.
const KeyEscape = "Escape"

// Keyboard fans key presses out to the listeners currently attached.
type Keyboard struct {
	next      int
	listeners map[int]func(key string)
	order     []int
}

// NewKeyboard returns a Keyboard with no listeners.
func NewKeyboard() *Keyboard {
	return &Keyboard{listeners: make(map[int]func(string))}
}

// Listen attaches fn and returns the function that detaches it. The release
// function is safe to call more than once.
func (k *Keyboard) Listen(fn func(key string)) (release func()) {
	id := k.next
	k.next++
	k.listeners[id] = fn
	k.order = append(k.order, id)

	return func() {
		if _, ok := k.listeners[id]; !ok {
			return
		}
		delete(k.listeners, id)
		for i, v := range k.order {
			if v == id {
				k.order = append(k.order[:i], k.order[i+1:]...)
				break
			}
		}
	}
}

// Press delivers key to every listener attached at the time of the call.
func (k *Keyboard) Press(key string) {
	ids := append([]int(nil), k.order...)
	for _, id := range ids {
		if fn, ok := k.listeners[id]; ok {
			fn(key)
		}
	}
}

// Listeners returns the number of attached listeners.
func (k *Keyboard) Listeners() int {
	return len(k.listeners)
}
