package editor

import (
	"context"
	"errors"
	"geo-editor/model"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	mu    sync.Mutex
	calls [][]model.Point
	err   error
	gate  chan struct{} // when set, Save blocks until it is closed
}

func (s *recordingSaver) Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, model.ClonePoints(points))
	if s.err != nil {
		return nil, s.err
	}
	return points, nil
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "new-" + string(rune('0'+n))
	}
}

func samplePoints() []model.Point {
	return []model.Point{
		{ID: "pt1", Coordinates: orb.Point{-74.1, 4.65}, Name: "Lot 1", Status: model.StatusNew},
		{ID: "pt2", Coordinates: orb.Point{-74.12, 4.66}, Name: "Lot 2", Status: model.StatusResolved,
			Attributes: model.Attributes{"building": map[string]any{"bedrooms_count": 3.0}}},
	}
}

func newController(t *testing.T, saver Saver, opts Options) *Controller {
	t.Helper()
	if opts.NewID == nil {
		opts.NewID = seqIDs()
	}
	c := New(saver, opts)
	c.Load("p1", samplePoints())
	return c
}

func TestInitialState(t *testing.T) {
	c := New(nil, Options{})
	st := c.State()
	assert.Equal(t, ModeQuery, st.Mode)
	assert.False(t, st.EditingEnabled)
	assert.Nil(t, st.Draft)
	assert.Empty(t, st.Points)
}

func TestLoadSelectsFirstPoint(t *testing.T) {
	c := newController(t, nil, Options{})
	st := c.State()
	assert.Equal(t, "p1", st.ProjectID)
	assert.Equal(t, "pt1", st.SelectedID)
	assert.False(t, st.Panel.Open)
	assert.Len(t, st.Points, 2)
}

func TestSelectToolRequiresEditing(t *testing.T) {
	c := newController(t, nil, Options{})

	require.NoError(t, c.SelectTool(ModeCreate))
	assert.Equal(t, ModeQuery, c.State().Mode, "create must be ignored while editing is disabled")

	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	assert.Equal(t, ModeCreate, c.State().Mode)

	require.NoError(t, c.SelectTool("bogus"))
	assert.Equal(t, ModeCreate, c.State().Mode)
}

func TestModeInvariantHoldsForAllSequences(t *testing.T) {
	c := newController(t, nil, Options{})
	ops := []func(){
		func() { c.SetEditingEnabled(true) },
		func() { _ = c.SelectTool(ModeCreate) },
		func() { _ = c.SelectTool(ModeEdit) },
		func() { c.SetEditingEnabled(false) },
		func() { _ = c.SelectTool(ModeEdit) },
		func() { c.SetEditingEnabled(false) },
		func() { _ = c.SelectTool(ModeQuery) },
		func() { c.SetEditingEnabled(true) },
		func() { _ = c.SelectTool(ModeCreate) },
		func() { c.HandleMapClick(orb.Point{1, 1}) },
		func() { c.SetEditingEnabled(false) },
	}
	for i, op := range ops {
		op()
		st := c.State()
		if !st.EditingEnabled {
			assert.Equal(t, ModeQuery, st.Mode, "step %d", i)
			assert.Nil(t, st.Draft, "step %d", i)
		}
	}
}

func TestSetEditingEnabledIsIdempotent(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	rev := c.State().Revision
	c.SetEditingEnabled(true)
	assert.Equal(t, rev, c.State().Revision)

	c.SetEditingEnabled(false)
	rev = c.State().Revision
	c.SetEditingEnabled(false)
	assert.Equal(t, rev, c.State().Revision)
}

func TestBackgroundClickInCreateMode(t *testing.T) {
	saver := &recordingSaver{}
	c := New(saver, Options{NewID: seqIDs()})
	c.Load("p1", nil)
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))

	c.HandleMapClick(orb.Point{-74.1, 4.65})

	st := c.State()
	require.NotNil(t, st.Draft)
	assert.Equal(t, orb.Point{-74.1, 4.65}, st.Draft.Coordinates)
	assert.Equal(t, DefaultName, st.Draft.Name)
	assert.Empty(t, st.Draft.Description)
	assert.Equal(t, model.DefaultStatus(), st.Draft.Status)
	assert.Equal(t, Panel{Open: true, Mode: ModeCreate}, st.Panel)
	assert.Empty(t, st.Points, "points stay untouched until commit")
	assert.Zero(t, saver.count())
}

func TestBackgroundClickInQueryModeOpensPanel(t *testing.T) {
	c := newController(t, nil, Options{})
	c.HandleMapClick(orb.Point{0, 0})
	st := c.State()
	assert.Equal(t, Panel{Open: true, Mode: ModeQuery}, st.Panel)
	assert.Nil(t, st.Draft)
}

func TestBackgroundClickInEditModeIsIgnored(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))
	rev := c.State().Revision

	c.HandleMapClick(orb.Point{0, 0})
	assert.Equal(t, rev, c.State().Revision)
}

func TestPointClickInQueryModeSelects(t *testing.T) {
	c := newController(t, nil, Options{})
	c.HandlePointClick("pt2")
	st := c.State()
	assert.Equal(t, "pt2", st.SelectedID)
	assert.Equal(t, Panel{Open: true, Mode: ModeQuery}, st.Panel)
	assert.Equal(t, "Lot 2", st.PanelPoint().Name)
}

func TestPointClickInCreateModeIsIgnored(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandlePointClick("pt2")
	st := c.State()
	assert.Nil(t, st.Draft)
	assert.Equal(t, "pt1", st.SelectedID)
}

func TestEditDraftIsIsolatedUntilCommit(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))
	c.HandlePointClick("pt2")

	name := "Renamed"
	require.True(t, c.UpdateDraft(DraftPatch{
		Name:       &name,
		Attributes: map[string]any{"price": 120000.0},
	}))

	st := c.State()
	assert.Equal(t, "Renamed", st.Draft.Name)
	assert.Equal(t, "Lot 2", st.Points[1].Name)
	assert.NotContains(t, st.Points[1].Attributes, "price")

	// Mutating a snapshot must not leak back either.
	st.Draft.Attributes["building"].(map[string]any)["bedrooms_count"] = 9.0
	assert.Equal(t, 3.0, c.State().Draft.Attributes["building"].(map[string]any)["bedrooms_count"])

	require.NoError(t, c.CommitDraft(context.Background()))
	st = c.State()
	assert.Equal(t, "Renamed", st.Points[1].Name)
	assert.Equal(t, 120000.0, st.Points[1].Attributes["price"])
	assert.Equal(t, 1, saver.count())
}

func TestCommitRoundtripCreate(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{-74.2, 4.6})
	draft := *c.State().Draft

	require.NoError(t, c.CommitDraft(context.Background()))

	st := c.State()
	require.Len(t, st.Points, 3)
	assert.Equal(t, draft.ID, st.Points[2].ID)
	assert.Equal(t, draft.ID, st.SelectedID)
	assert.Equal(t, ModeQuery, st.Mode)
	assert.Nil(t, st.Draft)
	assert.False(t, st.Saving)

	require.Equal(t, 1, saver.count())
	assert.Len(t, saver.calls[0], 3)
	assert.Equal(t, draft.ID, saver.calls[0][2].ID)
}

func TestCommitWithoutDraftIsNoop(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})
	rev := c.State().Revision
	require.NoError(t, c.CommitDraft(context.Background()))
	assert.Zero(t, saver.count())
	assert.Equal(t, rev, c.State().Revision)
}

func TestCommitFailureKeepsState(t *testing.T) {
	saver := &recordingSaver{err: errors.New("backend down")}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 2})
	before := c.State()

	err := c.CommitDraft(context.Background())
	require.Error(t, err)

	after := c.State()
	assert.Equal(t, before.Draft, after.Draft)
	assert.Equal(t, ModeCreate, after.Mode)
	assert.Len(t, after.Points, 2)
	assert.False(t, after.Saving)

	// retry without re-entering data
	saver.err = nil
	require.NoError(t, c.CommitDraft(context.Background()))
	assert.Len(t, c.State().Points, 3)
}

func TestSwitchToQueryDropsDraftSilently(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 2})

	require.NoError(t, c.SelectTool(ModeQuery))
	st := c.State()
	assert.Nil(t, st.Draft, "uncommitted draft is discarded without confirmation")
	assert.Len(t, st.Points, 2)
	assert.Zero(t, saver.count())
}

func TestConfirmDiscardKeepsDraft(t *testing.T) {
	c := newController(t, nil, Options{ConfirmDiscard: true})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 2})

	err := c.SelectTool(ModeQuery)
	assert.ErrorIs(t, err, ErrUnsavedDraft)
	assert.NotNil(t, c.State().Draft)
	assert.Equal(t, ModeCreate, c.State().Mode)

	c.CancelDraft()
	require.NoError(t, c.SelectTool(ModeQuery))
}

func TestDisablingEditMidDraft(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))
	c.HandlePointClick("pt1")
	require.NotNil(t, c.State().Draft)

	c.SetEditingEnabled(false)
	st := c.State()
	assert.Nil(t, st.Draft)
	assert.Equal(t, ModeQuery, st.Mode)
	assert.Zero(t, saver.count())
}

func TestCancelDraftReopensPanelOnlyWithSelection(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 2})
	c.CancelDraft()
	st := c.State()
	assert.Equal(t, Panel{Open: true, Mode: ModeQuery}, st.Panel)
	assert.Equal(t, ModeQuery, st.Mode)

	empty := New(nil, Options{NewID: seqIDs()})
	empty.Load("p2", nil)
	empty.SetEditingEnabled(true)
	require.NoError(t, empty.SelectTool(ModeCreate))
	empty.HandleMapClick(orb.Point{1, 2})
	empty.CancelDraft()
	assert.False(t, empty.State().Panel.Open)
}

func TestDragRelocatesStoredPoint(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))

	c.BeginDrag("pt1")
	c.ContinueDrag(orb.Point{-74.15, 4.62})
	c.ContinueDrag(orb.Point{-74.2, 4.60})
	c.EndDrag()

	st := c.State()
	assert.Equal(t, orb.Point{-74.2, 4.60}, st.Points[0].Coordinates)
	assert.Empty(t, st.DragID)
	assert.Zero(t, saver.count(), "dragging never persists by itself")
}

func TestDragMovesActiveDraft(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))
	c.HandlePointClick("pt1")

	c.BeginDrag("pt1")
	c.ContinueDrag(orb.Point{-74.2, 4.60})
	c.EndDrag()

	st := c.State()
	assert.Equal(t, orb.Point{-74.2, 4.60}, st.Draft.Coordinates)
	assert.Equal(t, orb.Point{-74.1, 4.65}, st.Points[0].Coordinates)
}

func TestDragOutsideEditModeIsIgnored(t *testing.T) {
	c := newController(t, nil, Options{})
	c.BeginDrag("pt1")
	c.ContinueDrag(orb.Point{5, 5})
	assert.Equal(t, orb.Point{-74.1, 4.65}, c.State().Points[0].Coordinates)
}

func TestDispatchPrefersFeatureHit(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))

	c.Dispatch(Gesture{Kind: GestureClick, Coords: orb.Point{-74.1, 4.65}, FeatureID: "pt1"})
	assert.Nil(t, c.State().Draft, "a click on a feature is not a background click")

	c.Dispatch(Gesture{Kind: GestureClick, Coords: orb.Point{-74.3, 4.7}})
	assert.NotNil(t, c.State().Draft)
}

func TestDispatchDragSequence(t *testing.T) {
	c := newController(t, nil, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))

	c.Dispatch(Gesture{Kind: GestureMouseDown, Coords: orb.Point{-74.12, 4.66}, FeatureID: "pt2"})
	c.Dispatch(Gesture{Kind: GestureMouseMove, Coords: orb.Point{-74.0, 4.5}})
	c.Dispatch(Gesture{Kind: GestureMouseUp})
	c.Dispatch(Gesture{Kind: GestureMouseMove, Coords: orb.Point{10, 10}})

	assert.Equal(t, orb.Point{-74.0, 4.5}, c.State().Points[1].Coordinates)
}

func TestDeletePoint(t *testing.T) {
	saver := &recordingSaver{}
	c := newController(t, saver, Options{})

	assert.ErrorIs(t, c.DeletePoint(context.Background(), "pt1"), ErrEditingDisabled)

	c.SetEditingEnabled(true)
	assert.ErrorIs(t, c.DeletePoint(context.Background(), "missing"), ErrPointNotFound)

	require.NoError(t, c.DeletePoint(context.Background(), "pt1"))
	st := c.State()
	require.Len(t, st.Points, 1)
	assert.Equal(t, "pt2", st.Points[0].ID)
	assert.Empty(t, st.SelectedID)
	assert.Equal(t, 1, saver.count())
}

func TestListenersSeeEveryRevision(t *testing.T) {
	c := newController(t, nil, Options{})
	var revs []uint64
	c.OnChange(func(st State) { revs = append(revs, st.Revision) })

	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 1})

	require.Len(t, revs, 3)
	assert.Less(t, revs[0], revs[1])
	assert.Less(t, revs[1], revs[2])
}

func TestSavingFlagDuringCommit(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 1})

	sawSaving := make(chan struct{})
	var once sync.Once
	c.OnChange(func(st State) {
		if st.Saving {
			once.Do(func() { close(sawSaving) })
		}
	})

	done := make(chan error)
	go func() { done <- c.CommitDraft(context.Background()) }()

	<-sawSaving
	// the controller stays responsive while the save is pending
	assert.True(t, c.State().Saving)
	c.HandleMapClick(orb.Point{2, 2})

	close(saver.gate)
	require.NoError(t, <-done)
	assert.False(t, c.State().Saving)
}

func waitSaving(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State().Saving }, time.Second, time.Millisecond)
}

func TestCommitKeepsDragMadeWhileSaving(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 1})

	done := make(chan error)
	go func() { done <- c.CommitDraft(context.Background()) }()
	waitSaving(t, c)

	require.NoError(t, c.SelectTool(ModeEdit))
	c.BeginDrag("pt1")
	c.ContinueDrag(orb.Point{-74.3, 4.7})
	c.EndDrag()
	require.Equal(t, orb.Point{-74.3, 4.7}, c.State().Points[0].Coordinates)

	close(saver.gate)
	require.NoError(t, <-done)

	st := c.State()
	require.Len(t, st.Points, 3)
	assert.Equal(t, orb.Point{-74.3, 4.7}, st.Points[0].Coordinates)
	assert.Equal(t, "new-1", st.Points[2].ID)
	assert.Equal(t, "new-1", st.SelectedID)
	assert.Nil(t, st.Draft)
	assert.Equal(t, ModeQuery, st.Mode)
}

func TestDeleteKeepsDragMadeWhileSaving(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeEdit))

	done := make(chan error)
	go func() { done <- c.DeletePoint(context.Background(), "pt1") }()
	waitSaving(t, c)

	c.BeginDrag("pt2")
	c.ContinueDrag(orb.Point{-74.0, 4.5})
	c.EndDrag()

	close(saver.gate)
	require.NoError(t, <-done)

	st := c.State()
	require.Len(t, st.Points, 1)
	assert.Equal(t, "pt2", st.Points[0].ID)
	assert.Equal(t, orb.Point{-74.0, 4.5}, st.Points[0].Coordinates)
}

func TestCoalescedSavesShareOneCall(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	c := newController(t, saver, Options{CoalesceSaves: true})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 1})

	var started sync.WaitGroup
	started.Add(2)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			started.Done()
			errs <- c.CommitDraft(context.Background())
		}()
	}
	started.Wait()
	close(saver.gate)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.LessOrEqual(t, saver.count(), 2)
	assert.Len(t, c.State().Points, 3)
}

func TestProjectSwitchDuringSaveDropsResult(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	c := newController(t, saver, Options{})
	c.SetEditingEnabled(true)
	require.NoError(t, c.SelectTool(ModeCreate))
	c.HandleMapClick(orb.Point{1, 1})

	saving := make(chan struct{})
	var once sync.Once
	c.OnChange(func(st State) {
		if st.Saving {
			once.Do(func() { close(saving) })
		}
	})

	done := make(chan error)
	go func() { done <- c.CommitDraft(context.Background()) }()
	<-saving
	c.Load("p2", nil)
	close(saver.gate)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, "p2", st.ProjectID)
	assert.Empty(t, st.Points)
}
