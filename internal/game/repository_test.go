package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlpAus/games-top100-backend/internal/testutil"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db := testutil.OpenDB(t)
	require.NoError(t, PrimeDB(db))
	return NewRepository(db)
}

func TestUpsertKeepsIDForSameSource(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	g := &Game{SourceID: 42, Title: "Half-Life", Year: 1998, Genres: Tags{"Shooter"}}
	require.NoError(t, repo.UpsertBySourceID(ctx, g))
	firstID := g.ID
	require.NotEmpty(t, firstID)

	loaded, err := repo.FindByID(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, Tags{"Shooter"}, loaded.Genres)

	again := &Game{SourceID: 42, Title: "Half-Life", Year: 1998, Genres: Tags{"Shooter", "Sci-fi"}}
	require.NoError(t, repo.UpsertBySourceID(ctx, again))
	assert.Equal(t, firstID, again.ID)

	loaded, err = repo.FindByID(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, Tags{"Shooter", "Sci-fi"}, loaded.Genres, "更新后缓存应失效")
}

func TestFindByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := &Game{SourceID: 1, Title: "A"}
	b := &Game{SourceID: 2, Title: "B"}
	require.NoError(t, repo.UpsertBySourceID(ctx, a))
	require.NoError(t, repo.UpsertBySourceID(ctx, b))

	_, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)

	got, err := repo.FindByIDs(ctx, []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "B", got[b.ID].Title)
}

func TestSearchByPrefix(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for i, title := range []string{"Portal", "Portal 2", "Prey", "100%_Orange"} {
		require.NoError(t, repo.UpsertBySourceID(ctx, &Game{SourceID: int64(i + 1), Title: title}))
	}

	games, err := repo.Search(ctx, "por", 10)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Portal", games[0].Title)
	assert.Equal(t, "Portal 2", games[1].Title)

	games, err = repo.Search(ctx, "100%_", 10)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	games, err = repo.Search(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestToResponseImageURLs(t *testing.T) {
	r := ToResponse(Game{ID: "g1", Cover: "g1.jpg", Screenshots: Tags{"s1.jpg", "https://cdn.example.com/s2.jpg"}})
	assert.Equal(t, "/images/games/g1.jpg", r.ImageURL)
	assert.Equal(t, []string{"/images/games/s1.jpg", "https://cdn.example.com/s2.jpg"}, r.Screenshots)
	assert.NotNil(t, r.Genres)

	assert.Empty(t, ToResponse(Game{}).ImageURL)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	require.NoError(t, PrimeDB(db))
	reader := NewRepository(db)
	writer := NewRepository(db)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reader.now = func() time.Time { return now }

	g := &Game{SourceID: 7, Title: "Old"}
	require.NoError(t, writer.UpsertBySourceID(ctx, g))
	loaded, err := reader.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, "Old", loaded.Title)

	// 另一个进程的更新不会删掉这里的缓存
	require.NoError(t, writer.UpsertBySourceID(ctx, &Game{SourceID: 7, Title: "New"}))
	loaded, err = reader.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", loaded.Title)

	now = now.Add(CacheTTL)
	got, err := reader.FindByIDs(ctx, []string{g.ID})
	require.NoError(t, err)
	assert.Equal(t, "New", got[g.ID].Title)
}

func TestPurgeDropsCachedGames(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	require.NoError(t, PrimeDB(db))
	reader := NewRepository(db)
	writer := NewRepository(db)

	g := &Game{SourceID: 8, Title: "Old"}
	require.NoError(t, writer.UpsertBySourceID(ctx, g))
	_, err := reader.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.NoError(t, writer.UpsertBySourceID(ctx, &Game{SourceID: 8, Title: "New"}))

	reader.Purge()
	loaded, err := reader.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", loaded.Title)
}
