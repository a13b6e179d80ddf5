// Package page is the root of one visitor's page: it owns the theme flag,
// the active section and the project dialog, and applies browser events to
// them one at a time.
package page

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/okbk/onepage/internal/content"
	"github.com/okbk/onepage/internal/modal"
	"github.com/okbk/onepage/internal/theme"
	"github.com/okbk/onepage/internal/tracker"
)

// ErrUnknownProject is returned when a project id is not in the catalog.
var ErrUnknownProject = errors.New("unknown project")

// Hooks observe page events. Any field may be nil.
type Hooks struct {
	ProjectOpened func(id int)
	ModalClosed   func(via modal.Trigger)
}

// Page is one visitor's page instance. Its methods are safe for concurrent
// use; events are serialized in arrival order.
type Page struct {
	mu sync.Mutex

	catalog  *content.Catalog
	root     *theme.DocumentRoot
	theme    *theme.Toggle
	keys     *modal.Keyboard
	modal    *modal.Modal
	observer *tracker.Observer
	band     tracker.Band
	hooks    Hooks

	active  string
	mounted bool
}

// New builds a page over catalog. The page is not tracking sections until
// Mount is called.
func New(catalog *content.Catalog, band tracker.Band, hooks Hooks) *Page {
	root := &theme.DocumentRoot{}
	keys := modal.NewKeyboard()
	p := &Page{
		catalog: catalog,
		root:    root,
		theme:   theme.New(root),
		keys:    keys,
		modal:   modal.New(keys),
		band:    band,
		hooks:   hooks,
		active:  content.Sections[0].ID,
	}
	p.modal.OnClose(func(via modal.Trigger) {
		if p.hooks.ModalClosed != nil {
			p.hooks.ModalClosed(via)
		}
	})
	return p
}

// Mount starts tracking the navigation sections that exist in the rendered
// document. present reports whether an anchor was rendered; a nil present
// treats every section as rendered.
func (p *Page) Mount(present func(id string) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mounted {
		return
	}
	targets := make([]tracker.Target, 0, len(content.Sections))
	for _, s := range content.Sections {
		targets = append(targets, tracker.Target{
			ID:      s.ID,
			Present: present == nil || present(s.ID),
		})
	}
	p.observer = tracker.Register(p.band, targets, func(id string) { p.active = id })
	p.mounted = true
}

// Unmount stops section tracking and releases the dialog's key listener.
func (p *Page) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.observer != nil {
		p.observer.Disconnect()
	}
	p.modal.Dispose()
	p.mounted = false
}

// Mounted reports whether the page is tracking sections.
func (p *Page) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted
}

// ToggleTheme flips the theme and returns the new dark flag.
func (p *Page) ToggleTheme() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme.Flip()
}

// ObserveFrame feeds viewport geometry to the section tracker and returns
// the active section afterwards.
func (p *Page) ObserveFrame(vh float64, rects map[string]tracker.Rect) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.observer != nil {
		p.observer.Frame(vh, rects)
	}
	return p.active
}

// OpenProject selects the project and opens the dialog.
func (p *Page) OpenProject(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	proj, ok := p.catalog.Project(id)
	if !ok {
		return errors.Wrapf(ErrUnknownProject, "id %d", id)
	}
	if err := p.modal.Open(proj); err != nil {
		return err
	}
	if p.hooks.ProjectOpened != nil {
		p.hooks.ProjectOpened(id)
	}
	return nil
}

// CloseModal closes the dialog through the click adapter for via. Escape is
// only delivered through PressKey.
func (p *Page) CloseModal(via modal.Trigger) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn, ok := modal.Adapter(p.modal.Closer(), via)
	if !ok {
		return false
	}
	fn()
	return true
}

// PressKey delivers a key press to whatever listeners are attached.
func (p *Page) PressKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys.Press(key)
}

// Snapshot returns the render state of the page.
func (p *Page) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		Catalog:   p.catalog,
		Sections:  content.Sections,
		Active:    p.active,
		Dark:      p.theme.Dark(),
		RootClass: p.root.Classes(),
	}
	if proj, ok := p.modal.View(); ok {
		v.Modal = proj
	}
	return v
}

// View is an immutable snapshot used by templates.
type View struct {
	Catalog   *content.Catalog
	Sections  []content.NavSection
	Active    string
	Dark      bool
	RootClass string
	Modal     *content.Project
}

// IsActive reports whether id is the highlighted navigation section.
func (v View) IsActive(id string) bool {
	return v.Active == id
}

// ModalOpen reports whether a project dialog should be rendered.
func (v View) ModalOpen() bool {
	return v.Modal != nil
}
