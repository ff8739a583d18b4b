package editor

import (
	"context"
	"geo-editor/model"
	"slices"

	"github.com/paulmach/orb"
)

// DraftPatch carries form edits. Nil fields are left alone; an attribute set
// to nil is removed.
type DraftPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *model.Status  `json:"status,omitempty"`
	Coordinates *orb.Point     `json:"coordinates,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// UpdateDraft applies patch to the draft. It reports false when there is no
// draft. The draft's id never changes.
func (c *Controller) UpdateDraft(patch DraftPatch) bool {
	applied := false
	c.update(func() bool {
		if c.draft == nil {
			return false
		}
		d := c.draft
		if patch.Name != nil {
			d.Name = *patch.Name
		}
		if patch.Description != nil {
			d.Description = *patch.Description
		}
		if patch.Status != nil {
			d.Status = *patch.Status
		}
		if patch.Coordinates != nil {
			d.Coordinates = *patch.Coordinates
		}
		for k, v := range patch.Attributes {
			if model.IsCoreField(k) {
				continue
			}
			if v == nil {
				delete(d.Attributes, k)
				continue
			}
			if d.Attributes == nil {
				d.Attributes = model.Attributes{}
			}
			d.Attributes[k] = v
		}
		applied = true
		return true
	})
	return applied
}

// CommitDraft folds the draft into the collection and saves it. A created
// draft is appended and selected; an edited one replaces its point. Without
// a draft this is a no-op.
//
// The lock is released while the saver runs. On failure nothing but the
// saving flag changes, so the user can retry. If the project was switched
// while saving, the result is dropped. If the points changed while saving,
// only the committed point is merged into them.
func (c *Controller) CommitDraft(ctx context.Context) error {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return nil
	}
	draft := c.draft.Clone()
	projectID := c.projectID
	next := withDraft(c.points, draft, c.draftKind)
	gen := c.pointsGen
	c.saving = true
	st, listeners := c.bumpLocked()
	c.mu.Unlock()
	notify(listeners, st)

	saved, err := c.save(ctx, projectID, next)

	c.update(func() bool {
		c.saving = false
		if err != nil || c.projectID != projectID {
			return true
		}
		if saved == nil {
			saved = next
		}
		if c.pointsGen == gen {
			c.points = model.ClonePoints(saved)
		} else {
			committed := draft
			if i := slices.IndexFunc(saved, byID(draft.ID)); i >= 0 {
				committed = saved[i].Clone()
			}
			c.points = upsert(c.points, committed)
		}
		c.pointsGen++
		c.selectedID = draft.ID
		if c.draft != nil && c.draft.ID == draft.ID {
			c.clearDraftLocked()
			c.mode = ModeQuery
			c.dragID = ""
			c.panel.Mode = ModeQuery
		}
		return true
	})
	return err
}

// CancelDraft drops the draft and returns to query. The read-only panel stays
// open only while a selection exists.
func (c *Controller) CancelDraft() {
	c.update(func() bool {
		c.clearDraftLocked()
		c.mode = ModeQuery
		c.dragID = ""
		c.panel = Panel{Open: c.indexLocked(c.selectedID) >= 0, Mode: ModeQuery}
		return true
	})
}

// DeletePoint removes id from the collection and saves it. Selection and
// draft pointing at id are cleared once the save succeeds.
func (c *Controller) DeletePoint(ctx context.Context, id string) error {
	c.mu.Lock()
	if !c.editingEnabled {
		c.mu.Unlock()
		return ErrEditingDisabled
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrPointNotFound
	}
	projectID := c.projectID
	next := model.ClonePoints(c.points)
	next = append(next[:idx], next[idx+1:]...)
	gen := c.pointsGen
	c.saving = true
	st, listeners := c.bumpLocked()
	c.mu.Unlock()
	notify(listeners, st)

	saved, err := c.save(ctx, projectID, next)

	c.update(func() bool {
		c.saving = false
		if err != nil || c.projectID != projectID {
			return true
		}
		if saved == nil {
			saved = next
		}
		if c.pointsGen == gen {
			c.points = model.ClonePoints(saved)
		} else {
			c.points = slices.DeleteFunc(c.points, byID(id))
		}
		c.pointsGen++
		if c.selectedID == id {
			c.selectedID = ""
			if c.panel.Mode == ModeQuery {
				c.panel.Open = false
			}
		}
		if c.draft != nil && c.draft.ID == id {
			c.clearDraftLocked()
			c.mode = ModeQuery
			c.panel = Panel{Mode: ModeQuery}
		}
		if c.dragID == id {
			c.dragID = ""
		}
		return true
	})
	return err
}

func (c *Controller) save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error) {
	if c.saver == nil {
		return points, nil
	}
	if !c.opts.CoalesceSaves {
		return c.saver.Save(ctx, projectID, points)
	}
	v, err, _ := c.flight.Do(projectID, func() (any, error) {
		return c.saver.Save(ctx, projectID, points)
	})
	if err != nil {
		return nil, err
	}
	saved, _ := v.([]model.Point)
	return saved, nil
}

// withDraft returns a copy of points with draft applied.
func withDraft(points []model.Point, draft model.Point, kind Mode) []model.Point {
	next := model.ClonePoints(points)
	if kind == ModeEdit {
		for i := range next {
			if next[i].ID == draft.ID {
				next[i] = draft.Clone()
				return next
			}
		}
	}
	return append(next, draft.Clone())
}

// upsert replaces the point sharing p's id, or appends p.
func upsert(points []model.Point, p model.Point) []model.Point {
	if i := slices.IndexFunc(points, byID(p.ID)); i >= 0 {
		points[i] = p
		return points
	}
	return append(points, p)
}

func byID(id string) func(model.Point) bool {
	return func(p model.Point) bool { return p.ID == id }
}

func notify(listeners []Listener, st State) {
	for _, l := range listeners {
		l(st)
	}
}
