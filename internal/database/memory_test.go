package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/models"
)

func seedProject(t *testing.T, db *database.MemoryClient, userID int64, projectUUID string) {
	t.Helper()
	ctx := context.Background()
	g := &models.ProjectGroup{UUID: "g-" + projectUUID, Name: "Default", UserID: userID}
	require.NoError(t, db.CreateGroup(ctx, g))
	require.NoError(t, db.CreateProject(ctx, &models.Project{UUID: projectUUID, Name: projectUUID, UserID: userID, GroupUUID: g.UUID}))
}

func TestMemoryClient_ListHistoryOrderAndPaging(t *testing.T) {
	db := database.NewMemoryClient()
	ctx := context.Background()
	seedProject(t, db, 1, "p1")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, db.CreateHistory(ctx, &models.HistoryEntry{
			UUID:        fmt.Sprintf("e%02d", i),
			CreateDate:  base.Add(time.Duration(i) * time.Minute),
			Model:       "m",
			Prompt:      "p",
			ImageName:   fmt.Sprintf("image-%02d.png", i),
			Width:       64,
			Height:      64,
			UserID:      1,
			ProjectUUID: "p1",
		}))
	}

	filter := models.HistoryFilter{ProjectUUID: "p1", UserID: 1, Limit: 10, Offset: 10}
	page, err := db.ListHistory(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page, 10)
	// newest first: rank 11 is e14, rank 20 is e05
	assert.Equal(t, "e14", page[0].UUID)
	assert.Equal(t, "e05", page[9].UUID)

	total, err := db.CountHistory(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	other, err := db.CountHistory(ctx, models.HistoryFilter{ProjectUUID: "p1", UserID: 2})
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestMemoryClient_TiesBrokenByID(t *testing.T) {
	db := database.NewMemoryClient()
	ctx := context.Background()
	seedProject(t, db, 1, "p1")

	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.CreateHistory(ctx, &models.HistoryEntry{
			UUID: id, CreateDate: now, Model: "m", Prompt: "p", ImageName: id + ".png",
			Width: 1, Height: 1, UserID: 1, ProjectUUID: "p1",
		}))
	}

	entries, err := db.ListHistory(ctx, models.HistoryFilter{ProjectUUID: "p1", UserID: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].UUID)
	assert.Equal(t, "a", entries[2].UUID)
}

func TestMemoryClient_FavoritesAndOwnership(t *testing.T) {
	db := database.NewMemoryClient()
	ctx := context.Background()
	seedProject(t, db, 1, "p1")

	require.NoError(t, db.CreateHistory(ctx, &models.HistoryEntry{
		UUID: "e1", CreateDate: time.Now(), Model: "m", Prompt: "p", ImageName: "a.png",
		Width: 1, Height: 1, UserID: 1, ProjectUUID: "p1",
	}))

	assert.ErrorIs(t, db.SetFavorite(ctx, "e1", 2, true), database.ErrNotFound)
	require.NoError(t, db.SetFavorite(ctx, "e1", 1, true))

	favs, err := db.ListHistory(ctx, models.HistoryFilter{ProjectUUID: "p1", UserID: 1, FavoritesOnly: true, Limit: 50})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.True(t, favs[0].Favorite)

	_, err = db.GetHistory(ctx, "e1", 2)
	assert.ErrorIs(t, err, database.ErrNotFound)

	e, err := db.GetHistoryByImageName(ctx, "a.png", 1)
	require.NoError(t, err)
	assert.Equal(t, "e1", e.UUID)
}

func TestMemoryClient_DeleteProjectCascades(t *testing.T) {
	db := database.NewMemoryClient()
	ctx := context.Background()
	seedProject(t, db, 1, "p1")

	require.NoError(t, db.CreateHistory(ctx, &models.HistoryEntry{
		UUID: "e1", CreateDate: time.Now(), Model: "m", Prompt: "p", ImageName: "a.png",
		Width: 1, Height: 1, UserID: 1, ProjectUUID: "p1",
	}))
	require.NoError(t, db.DeleteProject(ctx, "p1", 1))

	_, err := db.GetHistory(ctx, "e1", 1)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, db.DeleteProject(ctx, "p1", 1), database.ErrNotFound)
}

func TestMemoryClient_DuplicateProjectUUID(t *testing.T) {
	db := database.NewMemoryClient()
	ctx := context.Background()
	seedProject(t, db, 1, "p1")

	err := db.CreateProject(ctx, &models.Project{UUID: "p1", Name: "again", UserID: 1, GroupUUID: "g-p1"})
	assert.ErrorIs(t, err, database.ErrConflict)
}
