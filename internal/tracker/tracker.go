// Package tracker decides which page region is the active section from
// viewport geometry reported by the browser.
//
// A region counts as visible while any part of it lies inside the tracked
// band: the viewport with Band.Top trimmed from the top edge and Band.Bottom
// trimmed from the bottom edge. The observer only notifies on transitions,
// and when several regions enter the band in the same batch the one with the
// greatest intersection ratio wins.
package tracker

import (
	"cmp"
	"slices"
)

// Band is the tracked part of the viewport, given as fractions of the
// viewport height removed from the top and bottom edges.
type Band struct {
	Top    float64
	Bottom float64
}

// DefaultBand keeps the slice between 40% and 45% of the viewport height.
var DefaultBand = Band{Top: 0.40, Bottom: 0.55}

// Bounds returns the band's top and bottom in pixels for a viewport of height vh.
func (b Band) Bounds(vh float64) (top, bottom float64) {
	return vh * b.Top, vh - vh*b.Bottom
}

// Rect is a region's vertical extent relative to the viewport top, as
// reported by getBoundingClientRect.
type Rect struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Height returns the region height, never negative.
func (r Rect) Height() float64 {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Ratio returns the fraction of r's height that lies inside the band, and
// whether r intersects the band at all.
func (b Band) Ratio(vh float64, r Rect) (float64, bool) {
	top, bottom := b.Bounds(vh)
	lo := max(top, r.Top)
	hi := min(bottom, r.Bottom)
	if hi <= lo {
		return 0, false
	}
	h := r.Height()
	if h == 0 {
		return 0, false
	}
	return (hi - lo) / h, true
}

// Entry is one visibility notification.
type Entry struct {
	ID           string
	Intersecting bool
	Ratio        float64
}

// Target pairs a section identifier with whether its element exists in the
// document. Targets without an element are not observed.
type Target struct {
	ID      string
	Present bool
}

// Observer tracks a fixed set of regions and reports the active one.
type Observer struct {
	band     Band
	order    map[string]int
	visible  map[string]bool
	onActive func(id string)
	closed   bool
}

// Register observes every present target and calls onActive whenever a
// notification batch brings a region into the band.
func Register(band Band, targets []Target, onActive func(id string)) *Observer {
	o := &Observer{
		band:     band,
		order:    make(map[string]int, len(targets)),
		visible:  make(map[string]bool, len(targets)),
		onActive: onActive,
	}
	for _, t := range targets {
		if !t.Present {
			continue
		}
		if _, dup := o.order[t.ID]; dup {
			continue
		}
		o.order[t.ID] = len(o.order)
	}
	return o
}

// Observed reports whether id is registered.
func (o *Observer) Observed(id string) bool {
	if o.closed {
		return false
	}
	_, ok := o.order[id]
	return ok
}

// Len returns the number of registered regions.
func (o *Observer) Len() int {
	if o.closed {
		return 0
	}
	return len(o.order)
}

// Frame computes notifications for the regions whose visibility changed
// since the last frame, dispatches them, and returns them. Regions missing
// from rects keep their previous state.
func (o *Observer) Frame(vh float64, rects map[string]Rect) []Entry {
	if o.closed || vh <= 0 {
		return nil
	}

	var entries []Entry
	for id := range o.order {
		r, ok := rects[id]
		if !ok {
			continue
		}
		ratio, in := o.band.Ratio(vh, r)
		if in == o.visible[id] {
			continue
		}
		o.visible[id] = in
		entries = append(entries, Entry{ID: id, Intersecting: in, Ratio: ratio})
	}
	o.sort(entries)
	o.Dispatch(entries)
	return entries
}

// Dispatch applies one notification batch. Among the intersecting entries for
// registered regions, the highest ratio wins; equal ratios go to the region
// registered first. A batch with no intersecting entry changes nothing.
func (o *Observer) Dispatch(entries []Entry) {
	if o.closed {
		return
	}

	best := -1
	for i, e := range entries {
		if !e.Intersecting {
			continue
		}
		if _, ok := o.order[e.ID]; !ok {
			continue
		}
		if best < 0 || o.beats(e, entries[best]) {
			best = i
		}
	}
	if best >= 0 && o.onActive != nil {
		o.onActive(entries[best].ID)
	}
}

func (o *Observer) beats(a, b Entry) bool {
	if a.Ratio != b.Ratio {
		return a.Ratio > b.Ratio
	}
	return o.order[a.ID] < o.order[b.ID]
}

// sort orders entries by registration order so batches are reproducible.
func (o *Observer) sort(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(o.order[a.ID], o.order[b.ID])
	})
}

// Disconnect deregisters every region. Later frames and batches are ignored.
func (o *Observer) Disconnect() {
	o.closed = true
	o.order = map[string]int{}
	o.visible = map[string]bool{}
}
