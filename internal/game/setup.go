package game

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 迁移 game 表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Game{}); err != nil {
		return fmt.Errorf("无法迁移game表: %w", err)
	}
	return nil
}
