package editor

import "geo-editor/model"

// State is a detached copy of the controller state.
type State struct {
	ProjectID      string        `json:"projectId"`
	Mode           Mode          `json:"mode"`
	EditingEnabled bool          `json:"editingEnabled"`
	Points         []model.Point `json:"points"`
	SelectedID     string        `json:"selectedId,omitempty"`
	Draft          *model.Point  `json:"draft,omitempty"`
	DraftKind      Mode          `json:"draftKind,omitempty"`
	Panel          Panel         `json:"panel"`
	DragID         string        `json:"dragId,omitempty"`
	Saving         bool          `json:"saving"`
	Revision       uint64        `json:"revision"`
}

// Selected returns the selected point, if it still exists.
func (s State) Selected() *model.Point {
	for i := range s.Points {
		if s.Points[i].ID == s.SelectedID {
			return &s.Points[i]
		}
	}
	return nil
}

// PanelPoint is what the panel displays: the draft while editing, otherwise
// the selection.
func (s State) PanelPoint() *model.Point {
	if s.Panel.Mode.Editing() {
		return s.Draft
	}
	return s.Selected()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		ProjectID:      c.projectID,
		Mode:           c.mode,
		EditingEnabled: c.editingEnabled,
		Points:         model.ClonePoints(c.points),
		SelectedID:     c.selectedID,
		DraftKind:      c.draftKind,
		Panel:          c.panel,
		DragID:         c.dragID,
		Saving:         c.saving,
		Revision:       c.revision,
	}
	if st.Points == nil {
		st.Points = []model.Point{}
	}
	if c.draft != nil {
		d := c.draft.Clone()
		st.Draft = &d
	}
	return st
}
