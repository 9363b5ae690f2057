package metadata

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 迁移 metadata 表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	return nil
}
