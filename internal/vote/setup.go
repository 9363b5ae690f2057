package vote

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/user"
)

var _ user.VoteLinker = (*Service)(nil)

// PrimeDB 迁移 votes 表
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Vote{}); err != nil {
		return fmt.Errorf("无法迁移vote表: %w", err)
	}
	return nil
}
