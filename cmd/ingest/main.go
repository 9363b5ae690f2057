// ingest 是目录导入的一次性命令。
// 默认从外部目录API同步一次；指定 -file 时从本地JSON文件导入。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/internal/catalog"
	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/config"
	"github.com/SlpAus/games-top100-backend/internal/platform/database"
	"github.com/SlpAus/games-top100-backend/internal/platform/logging"
	"github.com/SlpAus/games-top100-backend/internal/platform/startup"
	"github.com/SlpAus/games-top100-backend/internal/vote"
)

func main() {
	file := flag.String("file", "", "从JSON文件导入游戏 (RemoteGame 数组)，不访问目录API")
	skipImages := flag.Bool("skip-images", false, "不下载封面图片")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()
	if err := startup.Migrate(db, log); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	if *skipImages {
		cfg.Catalog.ImageDir = ""
	}
	syncer := catalog.NewSyncerFromConfig(cfg.Catalog, db, game.NewRepository(db), log)
	defer syncer.Close()

	// 导入后让服务进程缓存的排行榜失效，Redis不可用时由服务端的缓存过期兜底
	rdb, connected := database.InitRedis(context.Background(), cfg.Database.Redis, log)
	defer func() { _ = rdb.Close() }()
	if connected {
		syncer.OnImport(vote.NewListCache(rdb, cfg.Voting.ListCacheTTL, nil, log).Bump)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *file != "" {
		importFile(ctx, syncer, *file, log)
		return
	}

	res, err := syncer.Run(ctx)
	if err != nil {
		log.Fatal("目录同步失败", zap.Int("imported", res.Imported), zap.Error(err))
	}
}

func importFile(ctx context.Context, syncer *catalog.Syncer, path string, log *zap.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("读取导入文件失败", zap.String("path", path), zap.Error(err))
	}
	var remotes []catalog.RemoteGame
	if err := json.Unmarshal(data, &remotes); err != nil {
		log.Fatal("解析导入文件失败", zap.String("path", path), zap.Error(err))
	}

	res, err := syncer.ImportBatch(ctx, remotes)
	if err != nil {
		log.Fatal("导入中断", zap.Int("imported", res.Imported), zap.Error(err))
	}
	log.Info("文件导入完成",
		zap.String("path", path),
		zap.Int("imported", res.Imported),
		zap.Int("failed", res.Failed),
	)
}
