package store

import (
	"context"
	"geo-editor/model"
	"os"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestPostgres skips unless TEST_DB_DSN points at a scratch database.
func setupTestPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL integration test")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&PointRecord{}))
	return db
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := setupTestPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()
	project := "test-" + t.Name()
	t.Cleanup(func() { db.Where("project_id = ?", project).Delete(&PointRecord{}) })

	in := []model.Point{
		{ID: "b", Coordinates: orb.Point{-74.2, 4.6}, Name: "B", Status: model.StatusResolved},
		{ID: "a", Coordinates: orb.Point{-74.1, 4.65}, Name: "A", Status: model.StatusNew,
			Attributes: model.Attributes{"currency": "ARS"}},
	}
	_, err := s.Save(ctx, project, in)
	require.NoError(t, err)

	loaded, err := s.Load(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, in, loaded, "collection order survives")

	_, err = s.Save(ctx, project, in[:1])
	require.NoError(t, err)
	loaded, err = s.Load(ctx, project)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestPointRecordConversion(t *testing.T) {
	p := model.Point{ID: "a", Coordinates: orb.Point{1, 2}, Name: "A", Status: model.StatusNew,
		Attributes: model.Attributes{"rural": map[string]any{"irrigated_surface": 2.5}}}
	r, err := newPointRecord("p1", 4, p)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Position)
	assert.Equal(t, 1.0, r.Lng)
	assert.Equal(t, 2.0, r.Lat)
	assert.Equal(t, p, r.toPoint())

	r.Attributes = "not json"
	assert.Nil(t, r.toPoint().Attributes)
}
