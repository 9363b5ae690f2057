package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/metadata"
	"github.com/SlpAus/games-top100-backend/internal/testutil"
)

type fakeCatalog struct {
	games []RemoteGame
	token string
}

func (f *fakeCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page := []RemoteGame{}
	for i := offset; i < len(f.games) && i < offset+limit; i++ {
		page = append(page, f.games[i])
	}
	_ = json.NewEncoder(w).Encode(page)
}

func newSyncEnv(t *testing.T, catalog *fakeCatalog, pageSize int) (*Syncer, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	require.NoError(t, metadata.PrimeDB(db))
	require.NoError(t, game.PrimeDB(db))

	srv := httptest.NewServer(catalog)
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), srv.URL, "client", catalog.token, NewGate(0))
	s := NewSyncer(db, game.NewRepository(db), client, nil, 2, pageSize, zap.NewNop())
	t.Cleanup(s.Close)
	return s, db
}

func remoteGames(n int) []RemoteGame {
	out := make([]RemoteGame, n)
	for i := range out {
		out[i] = RemoteGame{
			ID:        int64(100 + i),
			Name:      "Game " + strconv.Itoa(i),
			Year:      1990 + i,
			Genres:    []string{"Action"},
			Platforms: []string{"PC"},
		}
	}
	return out
}

func TestSyncImportsAllPages(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{games: remoteGames(5), token: "secret"}
	s, db := newSyncEnv(t, catalog, 2)

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Imported)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 3, res.Pages)

	var count int64
	require.NoError(t, db.Model(&game.Game{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)

	offset, err := metadata.GetCatalogOffset(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, offset, "完整同步后游标归零")

	last, err := metadata.GetLastCatalogSync(ctx, db)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{games: remoteGames(3), token: "secret"}
	s, db := newSyncEnv(t, catalog, 10)

	_, err := s.Run(ctx)
	require.NoError(t, err)
	var first game.Game
	require.NoError(t, db.Where("source_id = ?", 101).Take(&first).Error)

	catalog.games[1].Name = "Renamed"
	_, err = s.Run(ctx)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&game.Game{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var second game.Game
	require.NoError(t, db.Where("source_id = ?", 101).Take(&second).Error)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Renamed", second.Title)
}

func TestSyncResumesFromCursor(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{games: remoteGames(4), token: "secret"}
	s, db := newSyncEnv(t, catalog, 2)
	require.NoError(t, metadata.SetCatalogOffset(ctx, db, 2))

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	var titles []string
	require.NoError(t, db.Model(&game.Game{}).Order("source_id").Pluck("title", &titles).Error)
	assert.Equal(t, []string{"Game 2", "Game 3"}, titles)
}

func TestSyncFailsOnRejectedCredentials(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{games: remoteGames(2), token: "secret"}
	s, db := newSyncEnv(t, catalog, 2)
	s.client.token = "wrong"

	_, err := s.Run(ctx)
	assert.ErrorContains(t, err, "401")

	last, err := metadata.GetLastCatalogSync(ctx, db)
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestImportBatchCountsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	s, db := newSyncEnv(t, &fakeCatalog{token: "secret"}, 2)

	res, err := s.ImportBatch(ctx, []RemoteGame{
		{ID: 1, Name: "Doom"},
		{ID: 0, Name: "No id"},
		{ID: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Imported: 1, Failed: 2}, res)

	var g game.Game
	require.NoError(t, db.Where("source_id = ?", 1).Take(&g).Error)
	assert.Equal(t, "Doom", g.Title)
}

func TestImportBatchFetchesCovers(t *testing.T) {
	ctx := context.Background()
	host := newImageHost(t)
	s, db := newSyncEnv(t, &fakeCatalog{token: "secret"}, 2)
	s.images = NewImageFetcher(host.Client(), NewGate(0), t.TempDir())

	res, err := s.ImportBatch(ctx, []RemoteGame{
		{ID: 7, Name: "Quake", CoverPage: host.URL + "/games/og"},
		{ID: 8, Name: "Thief", CoverPage: host.URL + "/games/none"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	var quake, thief game.Game
	require.NoError(t, db.Where("source_id = ?", 7).Take(&quake).Error)
	require.NoError(t, db.Where("source_id = ?", 8).Take(&thief).Error)
	assert.Equal(t, "cover-7.png", quake.Cover)
	assert.Empty(t, thief.Cover)
}

func TestImportRunsHooksOnlyWhenSomethingImported(t *testing.T) {
	ctx := context.Background()
	s, _ := newSyncEnv(t, &fakeCatalog{token: "secret"}, 10)

	var calls atomic.Int32
	s.OnImport(func(context.Context) error {
		calls.Add(1)
		return nil
	})
	s.OnImport(func(context.Context) error {
		return errors.New("redis down")
	})

	res, err := s.ImportBatch(ctx, []RemoteGame{{ID: 0, Name: "bad"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)
	assert.Zero(t, calls.Load())

	res, err = s.ImportBatch(ctx, remoteGames(3))
	require.NoError(t, err, "回调失败不影响导入结果")
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, int32(1), calls.Load(), "每批只失效一次")
}

func TestImportPurgesGameCache(t *testing.T) {
	ctx := context.Background()
	s, _ := newSyncEnv(t, &fakeCatalog{token: "secret"}, 10)

	_, err := s.ImportBatch(ctx, []RemoteGame{{ID: 1, Name: "Old"}})
	require.NoError(t, err)
	found, err := s.games.Search(ctx, "old", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	id := found[0].ID
	_, err = s.games.FindByID(ctx, id)
	require.NoError(t, err)

	_, err = s.ImportBatch(ctx, []RemoteGame{{ID: 1, Name: "New"}})
	require.NoError(t, err)
	loaded, err := s.games.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", loaded.Title)
}
