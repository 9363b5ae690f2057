package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/metadata"
)

// BatchResult 汇总一批导入的结果
type BatchResult struct {
	Imported int
	Failed   int
}

// Result 汇总一次完整同步的结果
type Result struct {
	BatchResult
	Pages int
}

// Syncer 分页读取外部目录并按外部ID写入游戏表。
// 同步游标保存在 metadata 表中，中断后从上次完成的页继续。
type Syncer struct {
	db       *gorm.DB
	games    *game.Repository
	client   *Client
	images   *ImageFetcher
	pool     pond.Pool
	pageSize int
	log      *zap.Logger
	now      func() time.Time
	onImport []func(context.Context) error
}

// NewSyncer 创建同步器。images 为 nil 时不抓取封面。
func NewSyncer(db *gorm.DB, games *game.Repository, client *Client, images *ImageFetcher, workers, pageSize int, log *zap.Logger) *Syncer {
	if workers < 1 {
		workers = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	return &Syncer{
		db:       db,
		games:    games,
		client:   client,
		images:   images,
		pool:     pond.NewPool(workers),
		pageSize: pageSize,
		log:      log.Named("catalog"),
		now:      time.Now,
	}
}

// Close 等待进行中的任务完成并释放工作池
func (s *Syncer) Close() {
	s.pool.StopAndWait()
}

// OnImport 注册导入后的回调，每批至少导入一条记录时调用。
// 回调失败只记录日志。
func (s *Syncer) OnImport(fn func(context.Context) error) {
	s.onImport = append(s.onImport, fn)
}

func (s *Syncer) afterImport(ctx context.Context) {
	s.games.Purge()
	ctx = context.WithoutCancel(ctx)
	for _, fn := range s.onImport {
		if err := fn(ctx); err != nil {
			s.log.Warn("导入后的缓存失效失败", zap.Error(err))
		}
	}
}

// Run 从游标位置开始同步到目录末尾，完成后把游标归零并记录同步时间
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var res Result
	if s.client == nil {
		return res, errors.New("未配置目录API")
	}

	offset, err := metadata.GetCatalogOffset(ctx, s.db)
	if err != nil {
		return res, err
	}
	if offset > 0 {
		s.log.Info("从上次中断的位置继续同步", zap.Int("offset", offset))
	}

	for {
		page, err := s.client.FetchPage(ctx, offset, s.pageSize)
		if err != nil {
			return res, err
		}
		if len(page) == 0 {
			break
		}

		batch, err := s.ImportBatch(ctx, page)
		res.Imported += batch.Imported
		res.Failed += batch.Failed
		if err != nil {
			return res, err
		}
		res.Pages++

		offset += len(page)
		if err := metadata.SetCatalogOffset(ctx, s.db, offset); err != nil {
			return res, err
		}
		s.log.Debug("目录页已导入",
			zap.Int("offset", offset),
			zap.Int("imported", batch.Imported),
			zap.Int("failed", batch.Failed),
		)

		if len(page) < s.pageSize {
			break
		}
	}

	if err := metadata.SetCatalogOffset(ctx, s.db, 0); err != nil {
		return res, err
	}
	if err := metadata.SetLastCatalogSync(ctx, s.db, s.now()); err != nil {
		return res, err
	}
	s.log.Info("目录同步完成",
		zap.Int("pages", res.Pages),
		zap.Int("imported", res.Imported),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// ImportBatch 并发导入一批记录，单条失败只计数不中断整批
func (s *Syncer) ImportBatch(ctx context.Context, remotes []RemoteGame) (BatchResult, error) {
	group := s.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var imported, failed atomic.Int32
	for _, remote := range remotes {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			if err := s.importOne(groupCtx, remote); err != nil {
				failed.Add(1)
				s.log.Warn("导入游戏失败",
					zap.Int64("source_id", remote.ID),
					zap.String("title", remote.Name),
					zap.Error(err),
				)
				return
			}
			imported.Add(1)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		s.log.Warn("导入任务组异常结束", zap.Error(err))
	}

	res := BatchResult{Imported: int(imported.Load()), Failed: int(failed.Load())}
	if res.Imported > 0 {
		s.afterImport(ctx)
	}
	return res, ctx.Err()
}

func (s *Syncer) importOne(ctx context.Context, remote RemoteGame) error {
	if remote.ID <= 0 {
		return fmt.Errorf("无效的外部ID %d", remote.ID)
	}
	if remote.Name == "" {
		return errors.New("缺少标题")
	}

	g := toGame(remote)
	if s.images != nil && remote.CoverPage != "" {
		cover, err := s.fetchCover(ctx, remote)
		if err != nil {
			return err
		}
		g.Cover = cover
	}
	return s.games.UpsertBySourceID(ctx, &g)
}

func (s *Syncer) fetchCover(ctx context.Context, remote RemoteGame) (string, error) {
	src, err := s.images.ResolveCover(ctx, remote.CoverPage)
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", nil
	}
	return s.images.Download(ctx, src, "cover-"+strconv.FormatInt(remote.ID, 10))
}

func toGame(r RemoteGame) game.Game {
	return game.Game{
		SourceID:     r.ID,
		Title:        r.Name,
		Year:         r.Year,
		Description:  r.Summary,
		Genres:       game.Tags(r.Genres),
		Gameplay:     game.Tags(r.Gameplay),
		Perspectives: game.Tags(r.Perspectives),
		Settings:     game.Tags(r.Settings),
		Topics:       game.Tags(r.Topics),
		Platforms:    game.Tags(r.Platforms),
		Screenshots:  game.Tags(r.Screenshots),
	}
}
