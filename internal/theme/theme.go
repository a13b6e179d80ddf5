// Package theme flips the page between the light and dark rule sets.
package theme

import (
	"slices"
	"strings"
)

// DarkClass is the root marker the stylesheet keys the dark rules on.
const DarkClass = "dark"

// Root is the shared element the theme marker is written to.
type Root interface {
	AddClass(name string)
	RemoveClass(name string)
}

// DocumentRoot is the server-side model of the <html> element's class list.
type DocumentRoot struct {
	classes []string
}

// AddClass adds name once.
func (r *DocumentRoot) AddClass(name string) {
	if !slices.Contains(r.classes, name) {
		r.classes = append(r.classes, name)
	}
}

// RemoveClass removes name if present.
func (r *DocumentRoot) RemoveClass(name string) {
	r.classes = slices.DeleteFunc(r.classes, func(c string) bool { return c == name })
}

// HasClass reports whether name is set.
func (r *DocumentRoot) HasClass(name string) bool {
	return slices.Contains(r.classes, name)
}

// Classes returns the class attribute value.
func (r *DocumentRoot) Classes() string {
	return strings.Join(r.classes, " ")
}

// Toggle owns the dark flag and mirrors it onto a Root.
type Toggle struct {
	dark bool
	root Root
}

// New returns a light Toggle bound to root.
func New(root Root) *Toggle {
	t := &Toggle{root: root}
	t.apply()
	return t
}

// Dark reports whether the dark rule set is active.
func (t *Toggle) Dark() bool {
	return t.dark
}

// Set changes the flag and updates the root marker.
func (t *Toggle) Set(dark bool) {
	t.dark = dark
	t.apply()
}

// Flip inverts the flag. Two flips restore the original state.
func (t *Toggle) Flip() bool {
	t.Set(!t.dark)
	return t.dark
}

func (t *Toggle) apply() {
	if t.root == nil {
		return
	}
	if t.dark {
		t.root.AddClass(DarkClass)
	} else {
		t.root.RemoveClass(DarkClass)
	}
}
