package editor

// Mode is what a map gesture currently means.
type Mode string

const (
	ModeQuery  Mode = "query"
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Valid reports whether m is one of the three tools.
func (m Mode) Valid() bool {
	switch m {
	case ModeQuery, ModeCreate, ModeEdit:
		return true
	}
	return false
}

// Editing reports whether m produces drafts.
func (m Mode) Editing() bool {
	return m == ModeCreate || m == ModeEdit
}

// Panel is the attribute panel beside the map. Its Mode says whether it
// shows the selection read-only or edits the draft.
type Panel struct {
	Open bool `json:"open"`
	Mode Mode `json:"mode"`
}
