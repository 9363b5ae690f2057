package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetValue 读取一个键，不存在时返回空字符串
func GetValue(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.Value, nil
}

// SetValue 插入或更新一个键
func SetValue(ctx context.Context, db *gorm.DB, key, value string) error {
	meta := Metadata{Key: key, Value: value, UpdatedAt: time.Now()}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// GetCatalogOffset 返回目录同步的游标，未设置时为0
func GetCatalogOffset(ctx context.Context, db *gorm.DB) (int, error) {
	v, err := GetValue(ctx, db, CatalogOffsetKey)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", CatalogOffsetKey, err)
	}
	return n, nil
}

func SetCatalogOffset(ctx context.Context, db *gorm.DB, offset int) error {
	return SetValue(ctx, db, CatalogOffsetKey, strconv.Itoa(offset))
}

// GetLastCatalogSync 返回最近一次完整同步的时间，从未同步时为零值
func GetLastCatalogSync(ctx context.Context, db *gorm.DB) (time.Time, error) {
	v, err := GetValue(ctx, db, LastCatalogSyncKey)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastCatalogSyncKey, err)
	}
	return t, nil
}

func SetLastCatalogSync(ctx context.Context, db *gorm.DB, t time.Time) error {
	return SetValue(ctx, db, LastCatalogSyncKey, t.UTC().Format(time.RFC3339))
}
