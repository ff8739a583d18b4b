package project

import (
	"context"
	"errors"
	"fmt"
	"geo-editor/model"

	"github.com/lib/pq"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// ProjectRecord is the projects table.
type ProjectRecord struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Name      string         `gorm:"uniqueIndex;size:255;not null"`
	CenterLng float64        `gorm:"not null"`
	CenterLat float64        `gorm:"not null"`
	Zoom      float64        `gorm:"not null;default:12"`
	Basemaps  pq.StringArray `gorm:"type:text[]"`
}

func (ProjectRecord) TableName() string {
	return "projects"
}

// MembershipRecord links a user to a project with a role.
type MembershipRecord struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex:uq_user_project;size:64;not null"`
	ProjectID string `gorm:"uniqueIndex:uq_user_project;size:64;not null"`
	Role      string `gorm:"size:32;not null;default:Viewer"`
}

func (MembershipRecord) TableName() string {
	return "user_projects"
}

// NewProjectRecord converts a project for insertion.
func NewProjectRecord(p model.Project) ProjectRecord {
	return ProjectRecord{
		ID:        p.ID,
		Name:      p.Name,
		CenterLng: p.Center.Lon(),
		CenterLat: p.Center.Lat(),
		Zoom:      p.Zoom,
		Basemaps:  pq.StringArray(p.Basemaps),
	}
}

func (r ProjectRecord) toProject(role string) model.Project {
	return model.Project{
		ID:       r.ID,
		Name:     r.Name,
		Center:   orb.Point{r.CenterLng, r.CenterLat},
		Zoom:     r.Zoom,
		Basemaps: []string(r.Basemaps),
		Role:     model.Role(role),
	}
}

// GormDirectory reads projects and memberships from the database.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

type projectWithRole struct {
	ProjectRecord
	Role string
}

func (g *GormDirectory) List(ctx context.Context, userID string) ([]model.Project, error) {
	var rows []projectWithRole
	err := g.db.WithContext(ctx).
		Table("projects").
		Select("projects.*, user_projects.role").
		Joins("JOIN user_projects ON user_projects.project_id = projects.id").
		Where("user_projects.user_id = ?", userID).
		Order("projects.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}

	out := make([]model.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ProjectRecord.toProject(r.Role))
	}
	return out, nil
}

func (g *GormDirectory) Get(ctx context.Context, userID, projectID string) (model.Project, error) {
	var p ProjectRecord
	err := g.db.WithContext(ctx).First(&p, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Project{}, ErrNotFound
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("query project: %w", err)
	}

	var m MembershipRecord
	err = g.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Project{}, ErrForbidden
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("query membership: %w", err)
	}
	return p.toProject(m.Role), nil
}

// IDs lists every project id.
func (g *GormDirectory) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := g.db.WithContext(ctx).Model(&ProjectRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	return ids, nil
}
