package game

import (
	"time"

	"gorm.io/datatypes"
)

// Tags 是以JSON数组形式存储的字符串集合
type Tags = datatypes.JSONSlice[string]

// Game 是从外部目录导入的游戏，对投票模块只读
type Game struct {
	// ID 是本系统分配的稳定ID (UUIDv7)
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// SourceID 是外部目录中的ID，重复导入时用它定位已有记录
	SourceID int64 `gorm:"uniqueIndex;not null" json:"sourceId"`

	Title       string `gorm:"index;not null" json:"title"`
	Year        int    `json:"year"`
	Description string `json:"description"`

	Genres       Tags `json:"genres"`
	Gameplay     Tags `json:"gameplay"`
	Perspectives Tags `json:"perspectives"`
	Settings     Tags `json:"settings"`
	Topics       Tags `json:"topics"`
	Platforms    Tags `json:"platforms"`

	// Cover 是封面图片在图片目录中的文件名，可能为空
	Cover       string `json:"cover"`
	Screenshots Tags   `json:"screenshots"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
