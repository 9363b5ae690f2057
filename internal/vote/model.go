package vote

import (
	"time"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/user"
)

// MaxPosition 是一个用户可以投票的最大位置
const MaxPosition = 100

// MaxCommentLength 是评论的最大字符数
const MaxCommentLength = 3000

// GameSnapshot 是投票时游戏属性的副本，只在投票的游戏变化时重新拍摄
type GameSnapshot struct {
	Title        string `gorm:"not null;default:''"`
	Year         int
	SourceID     int64
	Genres       game.Tags
	Gameplay     game.Tags
	Perspectives game.Tags
	Settings     game.Tags
	Topics       game.Tags
	Platforms    game.Tags
}

// SnapshotOf 拍摄游戏当前状态的快照
func SnapshotOf(g game.Game) GameSnapshot {
	return GameSnapshot{
		Title:        g.Title,
		Year:         g.Year,
		SourceID:     g.SourceID,
		Genres:       g.Genres,
		Gameplay:     g.Gameplay,
		Perspectives: g.Perspectives,
		Settings:     g.Settings,
		Topics:       g.Topics,
		Platforms:    g.Platforms,
	}
}

// Vote 是用户在某个位置上投给某个游戏的一票，(UserID, Position) 唯一
type Vote struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   string `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_user_position,priority:1"`
	Position int    `gorm:"not null;uniqueIndex:idx_votes_user_position,priority:2"`
	GameID   string `gorm:"type:varchar(36);not null;index"`
	Comment  string `gorm:"type:varchar(3000);not null;default:''"`

	// Voter 是用户资料的快照，资料更新时同步改写
	Voter user.Demographics `gorm:"embedded;embeddedPrefix:voter_"`
	Game  GameSnapshot      `gorm:"embedded;embeddedPrefix:game_"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
