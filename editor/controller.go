package editor

import (
	"context"
	"errors"
	"geo-editor/model"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sync/singleflight"
)

// DefaultName is given to points placed on the map.
const DefaultName = "new point"

var (
	// ErrUnsavedDraft is returned by SelectTool when ConfirmDiscard is set and
	// switching to query would drop an uncommitted draft.
	ErrUnsavedDraft    = errors.New("editor: unsaved draft")
	ErrEditingDisabled = errors.New("editor: editing disabled")
	ErrPointNotFound   = errors.New("editor: point not found")
)

// Saver persists the full point collection of a project and returns what was
// stored.
type Saver interface {
	Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error)
}

// Options tune behaviour that is off by default.
type Options struct {
	// ConfirmDiscard makes SelectTool(ModeQuery) refuse to drop a draft.
	ConfirmDiscard bool
	// CoalesceSaves lets concurrent saves of the same project share one call.
	CoalesceSaves bool
	// NewID generates identifiers for created points.
	NewID func() string
}

// Listener receives the state after every change.
type Listener func(State)

// Controller holds the interaction mode and the editing state of one user on
// one project. Listeners run outside the lock, in mutation order per goroutine;
// use State.Revision to discard stale notifications.
type Controller struct {
	mu    sync.Mutex
	saver Saver
	opts  Options

	projectID      string
	mode           Mode
	editingEnabled bool
	points         []model.Point
	pointsGen      uint64
	selectedID     string
	draft          *model.Point
	draftKind      Mode
	panel          Panel
	dragID         string
	saving         bool
	revision       uint64

	listeners []Listener
	flight    singleflight.Group
}

// New returns a controller in query mode with editing disabled.
func New(saver Saver, opts Options) *Controller {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Controller{
		saver: saver,
		opts:  opts,
		mode:  ModeQuery,
		panel: Panel{Mode: ModeQuery},
	}
}

// OnChange registers a listener.
func (c *Controller) OnChange(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// State returns a deep copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Load replaces the collection after a project switch: the first point is
// selected, any draft is dropped and the panel closes.
func (c *Controller) Load(projectID string, points []model.Point) {
	c.update(func() bool {
		c.projectID = projectID
		c.points = model.ClonePoints(points)
		c.pointsGen++
		c.selectedID = ""
		if len(c.points) > 0 {
			c.selectedID = c.points[0].ID
		}
		c.clearDraftLocked()
		c.dragID = ""
		c.panel = Panel{Mode: ModeQuery}
		return true
	})
}

// SetEditingEnabled toggles editing. Disabling forces query mode and drops
// the draft. Idempotent.
func (c *Controller) SetEditingEnabled(enabled bool) {
	c.update(func() bool {
		if enabled {
			if c.editingEnabled {
				return false
			}
			c.editingEnabled = true
			return true
		}
		if !c.editingEnabled && c.mode == ModeQuery && c.draft == nil {
			return false
		}
		c.editingEnabled = false
		c.mode = ModeQuery
		c.clearDraftLocked()
		c.dragID = ""
		c.panel.Mode = ModeQuery
		return true
	})
}

// SelectTool switches the active tool. Going back to query silently drops
// the draft unless Options.ConfirmDiscard is set. Create and edit are ignored
// while editing is disabled.
func (c *Controller) SelectTool(tool Mode) error {
	var err error
	c.update(func() bool {
		switch tool {
		case ModeQuery:
			if c.draft != nil && c.opts.ConfirmDiscard {
				err = ErrUnsavedDraft
				return false
			}
			changed := c.mode != ModeQuery || c.draft != nil
			c.mode = ModeQuery
			c.clearDraftLocked()
			c.dragID = ""
			c.panel.Mode = ModeQuery
			return changed
		case ModeCreate, ModeEdit:
			if !c.editingEnabled || c.mode == tool {
				return false
			}
			c.mode = tool
			c.dragID = ""
			return true
		}
		return false
	})
	return err
}

// HandleMapClick handles a click that hit no feature.
func (c *Controller) HandleMapClick(at orb.Point) {
	c.update(func() bool {
		switch c.mode {
		case ModeCreate:
			if !c.editingEnabled {
				return false
			}
			p := model.Point{
				ID:          c.opts.NewID(),
				Coordinates: at,
				Name:        DefaultName,
				Status:      model.DefaultStatus(),
			}
			c.draft = &p
			c.draftKind = ModeCreate
			c.panel = Panel{Open: true, Mode: ModeCreate}
			return true
		case ModeQuery:
			c.panel = Panel{Open: true, Mode: ModeQuery}
			return true
		}
		// edit only reacts to picking a point
		return false
	})
}

// HandlePointClick handles a click on an existing point feature.
func (c *Controller) HandlePointClick(id string) {
	c.update(func() bool {
		idx := c.indexLocked(id)
		if idx < 0 {
			return false
		}
		switch c.mode {
		case ModeEdit:
			if !c.editingEnabled {
				return false
			}
			d := c.points[idx].Clone()
			c.draft = &d
			c.draftKind = ModeEdit
			c.selectedID = id
			c.panel = Panel{Open: true, Mode: ModeEdit}
			return true
		case ModeQuery:
			c.selectedID = id
			c.panel = Panel{Open: true, Mode: ModeQuery}
			return true
		}
		return false
	})
}

// BeginDrag starts relocating id. Edit mode only.
func (c *Controller) BeginDrag(id string) {
	c.update(func() bool {
		if c.mode != ModeEdit || !c.editingEnabled {
			return false
		}
		if c.indexLocked(id) < 0 && (c.draft == nil || c.draft.ID != id) {
			return false
		}
		c.dragID = id
		return true
	})
}

// ContinueDrag moves the dragged point, or the draft when the draft carries
// the dragged id. The change stays in memory until the next save.
func (c *Controller) ContinueDrag(at orb.Point) {
	c.update(func() bool {
		if c.dragID == "" || c.mode != ModeEdit {
			return false
		}
		if c.draft != nil && c.draft.ID == c.dragID {
			c.draft.Coordinates = at
			return true
		}
		idx := c.indexLocked(c.dragID)
		if idx < 0 {
			c.dragID = ""
			return true
		}
		c.points[idx].Coordinates = at
		c.pointsGen++
		return true
	})
}

// EndDrag clears the drag target.
func (c *Controller) EndDrag() {
	c.update(func() bool {
		if c.dragID == "" {
			return false
		}
		c.dragID = ""
		return true
	})
}

// update runs fn under the lock and, if it reports a change, bumps the
// revision and notifies listeners after unlocking.
func (c *Controller) update(fn func() bool) {
	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	st, listeners := c.bumpLocked()
	c.mu.Unlock()
	notify(listeners, st)
}

func (c *Controller) bumpLocked() (State, []Listener) {
	c.revision++
	return c.snapshotLocked(), slices.Clone(c.listeners)
}

func (c *Controller) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(c.points, byID(id))
}

func (c *Controller) clearDraftLocked() {
	c.draft = nil
	c.draftKind = ""
}
