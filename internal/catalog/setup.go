package catalog

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/config"
)

const httpTimeout = 30 * time.Second

// NewSyncerFromConfig 按配置组装客户端、图片抓取器和同步器。
// 目录API和图片站共用一个 Gate，两者的请求合计受同一个间隔约束。
// 未配置 baseURL 时只能使用 ImportBatch。
func NewSyncerFromConfig(cfg config.CatalogConfig, db *gorm.DB, games *game.Repository, log *zap.Logger) *Syncer {
	httpClient := &http.Client{Timeout: httpTimeout}
	gate := NewGate(cfg.MinInterval)

	var client *Client
	if cfg.BaseURL != "" {
		client = NewClient(httpClient, cfg.BaseURL, cfg.ClientID, cfg.Token, gate)
	}
	var images *ImageFetcher
	if cfg.ImageDir != "" {
		images = NewImageFetcher(httpClient, gate, cfg.ImageDir)
	}
	return NewSyncer(db, games, client, images, cfg.Workers, cfg.PageSize, log)
}
