package store

import (
	"context"
	"encoding/json"
	"fmt"
	"geo-editor/model"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// PointRecord is one row of a project's collection. Position keeps the
// collection order, which decides paint order on the map.
type PointRecord struct {
	ID          uint    `gorm:"primaryKey"`
	ProjectID   string  `gorm:"index:idx_point_project_position,priority:1;not null"`
	Position    int     `gorm:"index:idx_point_project_position,priority:2"`
	PointID     string  `gorm:"not null"`
	Name        string  `gorm:"size:255"`
	Description string  `gorm:"type:text"`
	Status      string  `gorm:"size:32;index"`
	Lng         float64 `gorm:"not null"`
	Lat         float64 `gorm:"not null"`
	Attributes  string  `gorm:"type:text"` // JSON object of domain fields
}

// TableName pins the table name.
func (PointRecord) TableName() string {
	return "point_records"
}

// PostgresStore persists collections through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore uses an opened, migrated connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns the project's points in collection order.
func (s *PostgresStore) Load(ctx context.Context, projectID string) ([]model.Point, error) {
	var rows []PointRecord
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	points := make([]model.Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, r.toPoint())
	}
	return points, nil
}

// Save replaces the project's rows in one transaction.
func (s *PostgresStore) Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error) {
	rows := make([]PointRecord, 0, len(points))
	for i, p := range points {
		r, err := newPointRecord(projectID, i, p)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&PointRecord{}).Error; err != nil {
			return fmt.Errorf("delete points: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert points: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return model.ClonePoints(points), nil
}

func newPointRecord(projectID string, position int, p model.Point) (PointRecord, error) {
	attrs := "{}"
	if len(p.Attributes) > 0 {
		data, err := json.Marshal(p.Attributes)
		if err != nil {
			return PointRecord{}, fmt.Errorf("encode attributes of %s: %w", p.ID, err)
		}
		attrs = string(data)
	}
	return PointRecord{
		ProjectID:   projectID,
		Position:    position,
		PointID:     p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Lng:         p.Coordinates.Lon(),
		Lat:         p.Coordinates.Lat(),
		Attributes:  attrs,
	}, nil
}

func (r PointRecord) toPoint() model.Point {
	p := model.Point{
		ID:          r.PointID,
		Coordinates: orb.Point{r.Lng, r.Lat},
		Name:        r.Name,
		Description: r.Description,
		Status:      model.Status(r.Status),
	}
	attrs := gjson.Parse(r.Attributes)
	if attrs.IsObject() {
		attrs.ForEach(func(k, v gjson.Result) bool {
			if p.Attributes == nil {
				p.Attributes = model.Attributes{}
			}
			p.Attributes[k.String()] = v.Value()
			return true
		})
	}
	return p
}
