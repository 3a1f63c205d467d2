package assembler

import (
	"log/slog"
)

// State is a step of a generation run.
type State int

const (
	StateInit State = iota
	StateImageResolved
	StateTemplateLoaded
	StateComposited
	StateSerialized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateImageResolved:
		return "IMAGE_RESOLVED"
	case StateTemplateLoaded:
		return "TEMPLATE_LOADED"
	case StateComposited:
		return "COMPOSITED"
	case StateSerialized:
		return "SERIALIZED"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Observer is notified of every state transition of a run.
type Observer func(req Request, from State, to State)

// HandleTracker is notified whenever a run takes or drops an image handle.
type HandleTracker interface {
	Opened(name string)
	Released(name string)
}

type nopTracker struct{}

func (nopTracker) Opened(string)   {}
func (nopTracker) Released(string) {}

// handles owns the images of one run. release drops every handle exactly once.
type handles struct {
	tracker HandleTracker
	images  map[string]any
	order   []string
}

func newHandles(tracker HandleTracker) *handles {
	if tracker == nil {
		tracker = nopTracker{}
	}
	return &handles{tracker: tracker, images: map[string]any{}}
}

func (h *handles) hold(name string, img any) {
	if _, ok := h.images[name]; ok {
		h.drop(name)
	}
	h.images[name] = img
	h.order = append(h.order, name)
	h.tracker.Opened(name)
}

func (h *handles) drop(name string) {
	if _, ok := h.images[name]; !ok {
		return
	}
	delete(h.images, name)
	h.tracker.Released(name)
}

func (h *handles) release() {
	for i := len(h.order) - 1; i >= 0; i-- {
		h.drop(h.order[i])
	}
	h.order = nil
}

// run carries the per-request state of one Generate call.
type run struct {
	req      Request
	state    State
	handles  *handles
	observer Observer
	logger   *slog.Logger
}

func (r *run) transition(to State) {
	from := r.state
	r.state = to
	r.logger.Debug("layout state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	if r.observer != nil {
		r.observer(r.req, from, to)
	}
}
