package project

import (
	"context"
	"geo-editor/model"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDirectoryMembership(t *testing.T) {
	d := NewMemoryDirectory(DemoProjects())
	d.Grant("u1", "p2", model.RoleViewer)
	d.Grant("u1", "p1", model.RoleEditor)
	ctx := context.Background()

	list, err := d.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, model.RoleEditor, list[0].Role)
	assert.Equal(t, model.RoleViewer, list[1].Role)

	p, err := d.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Proyecto Norte", p.Name)
	assert.Equal(t, orb.Point{-74.1, 4.65}, p.Center)
	assert.Equal(t, 12.0, p.Zoom)

	empty, err := d.List(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = d.Get(ctx, "stranger", "p1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = d.Get(ctx, "u1", "p9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoles(t *testing.T) {
	assert.True(t, model.RoleSuperAdmin.CanEdit())
	assert.True(t, model.RoleProjectAdmin.CanEdit())
	assert.True(t, model.RoleEditor.CanEdit())
	assert.False(t, model.RoleViewer.CanEdit())
	assert.False(t, model.Role("").CanEdit())
}

func TestProjectRecordConversion(t *testing.T) {
	in := DemoProjects()[1]
	r := NewProjectRecord(in)
	assert.Equal(t, -74.18, r.CenterLng)
	assert.Equal(t, 4.58, r.CenterLat)

	out := r.toProject(string(model.RoleProjectAdmin))
	in.Role = model.RoleProjectAdmin
	assert.Equal(t, in, out)
}

func TestIDsAreSorted(t *testing.T) {
	d := NewMemoryDirectory([]model.Project{{ID: "b"}, {ID: "a"}, {ID: "b"}})
	assert.Equal(t, []string{"a", "b"}, d.IDs())
}
