package user

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 迁移 users 表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	return nil
}
