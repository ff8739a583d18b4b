package project

import (
	"context"
	"errors"
	"geo-editor/model"
	"sort"
	"sync"

	"github.com/paulmach/orb"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("not a member of this project")
)

// Directory resolves the projects a user may open, with the user's role
// filled in.
type Directory interface {
	List(ctx context.Context, userID string) ([]model.Project, error)
	Get(ctx context.Context, userID, projectID string) (model.Project, error)
}

// DemoProjects returns the two demo projects.
func DemoProjects() []model.Project {
	return []model.Project{
		{ID: "p1", Name: "Proyecto Norte", Center: orb.Point{-74.1, 4.65}, Zoom: 12, Basemaps: []string{"osm", "sat"}},
		{ID: "p2", Name: "Proyecto Sur", Center: orb.Point{-74.18, 4.58}, Zoom: 12, Basemaps: []string{"osm", "sat"}},
	}
}

// MemoryDirectory keeps projects and memberships in memory.
type MemoryDirectory struct {
	mu       sync.RWMutex
	projects map[string]model.Project
	order    []string
	members  map[string]map[string]model.Role // user -> project -> role
}

func NewMemoryDirectory(projects []model.Project) *MemoryDirectory {
	d := &MemoryDirectory{
		projects: make(map[string]model.Project),
		members:  make(map[string]map[string]model.Role),
	}
	for _, p := range projects {
		p.Role = ""
		if _, dup := d.projects[p.ID]; !dup {
			d.order = append(d.order, p.ID)
		}
		d.projects[p.ID] = p
	}
	return d
}

// Grant sets the role of userID in projectID.
func (d *MemoryDirectory) Grant(userID, projectID string, role model.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.members[userID] == nil {
		d.members[userID] = make(map[string]model.Role)
	}
	d.members[userID][projectID] = role
}

// List returns the user's projects in registration order.
func (d *MemoryDirectory) List(ctx context.Context, userID string) ([]model.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []model.Project{}
	for _, id := range d.order {
		role, ok := d.members[userID][id]
		if !ok {
			continue
		}
		p := d.projects[id]
		p.Role = role
		out = append(out, p)
	}
	return out, nil
}

func (d *MemoryDirectory) Get(ctx context.Context, userID, projectID string) (model.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.projects[projectID]
	if !ok {
		return model.Project{}, ErrNotFound
	}
	role, ok := d.members[userID][projectID]
	if !ok {
		return model.Project{}, ErrForbidden
	}
	p.Role = role
	return p, nil
}

// IDs returns every registered project id, sorted.
func (d *MemoryDirectory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := append([]string(nil), d.order...)
	sort.Strings(ids)
	return ids
}
