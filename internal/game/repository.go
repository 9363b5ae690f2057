package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 表示游戏不存在
var ErrNotFound = errors.New("game not found")

// CacheTTL 是内存缓存条目的有效期，其他进程导入的数据最迟在这之后可见
const CacheTTL = 5 * time.Minute

type cachedGame struct {
	game     Game
	loadedAt time.Time
}

// Repository 负责游戏的读写，按ID读取时经过内存缓存
type Repository struct {
	db    *gorm.DB
	cache *xsync.Map[string, cachedGame]
	now   func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, cache: xsync.NewMap[string, cachedGame](), now: time.Now}
}

func (r *Repository) load(id string) (Game, bool) {
	c, ok := r.cache.Load(id)
	if !ok {
		return Game{}, false
	}
	if r.now().Sub(c.loadedAt) >= CacheTTL {
		r.cache.Delete(id)
		return Game{}, false
	}
	return c.game, true
}

func (r *Repository) store(g Game) {
	r.cache.Store(g.ID, cachedGame{game: g, loadedAt: r.now()})
}

// Purge 清空内存缓存
func (r *Repository) Purge() {
	r.cache.Clear()
}

// FindByID 按ID读取游戏，不存在时返回 ErrNotFound
func (r *Repository) FindByID(ctx context.Context, id string) (Game, error) {
	if g, ok := r.load(id); ok {
		return g, nil
	}
	var g Game
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Game{}, ErrNotFound
	}
	if err != nil {
		return Game{}, err
	}
	r.store(g)
	return g, nil
}

// FindByIDs 批量读取，不存在的ID不出现在结果中
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]Game, error) {
	out := make(map[string]Game, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if g, ok := r.load(id); ok {
			out[id] = g
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	var games []Game
	if err := r.db.WithContext(ctx).Where("id IN ?", missing).Find(&games).Error; err != nil {
		return nil, err
	}
	for _, g := range games {
		r.store(g)
		out[g.ID] = g
	}
	return out, nil
}

// Search 按标题前缀搜索，不区分大小写
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]Game, error) {
	query = strings.TrimSpace(query)
	games := make([]Game, 0)
	if query == "" {
		return games, nil
	}
	pattern := escapeLike(strings.ToLower(query)) + "%"
	err := r.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern).
		Order("title asc").Order("id asc").
		Limit(limit).
		Find(&games).Error
	return games, err
}

// UpsertBySourceID 按外部ID插入或更新游戏，已有记录保持原来的ID
func (r *Repository) UpsertBySourceID(ctx context.Context, g *Game) error {
	var existing Game
	err := r.db.WithContext(ctx).Select("id").Where("source_id = ?", g.SourceID).Take(&existing).Error
	switch {
	case err == nil:
		g.ID = existing.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		g.ID = id.String()
	default:
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "year", "description", "genres", "gameplay", "perspectives",
			"settings", "topics", "platforms", "cover", "screenshots", "updated_at",
		}),
	}).Create(g).Error
	if err != nil {
		return err
	}
	r.cache.Delete(g.ID)
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
