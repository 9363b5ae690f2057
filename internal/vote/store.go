package vote

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/user"
)

// snapshotColumns 是冲突更新时重新拍摄的游戏快照列
var snapshotColumns = []string{
	"game_id", "game_title", "game_year", "game_source_id",
	"game_genres", "game_gameplay", "game_perspectives", "game_settings",
	"game_topics", "game_platforms", "updated_at",
}

// Store 封装 votes 表的读写
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Upsert 按 (user_id, position) 插入或替换一票。
// 已存在时只更新游戏和游戏快照，用户快照和评论保持不变。
func (s *Store) Upsert(ctx context.Context, v *Vote) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "position"}},
		DoUpdates: clause.AssignmentColumns(snapshotColumns),
	}).Create(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("upsert 影响了 %d 行，预期为 1", res.RowsAffected)
	}
	return nil
}

// SetComment 更新评论，返回匹配的行数
func (s *Store) SetComment(ctx context.Context, userID string, position int, comment string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Vote{}).
		Where("user_id = ? AND position = ?", userID, position).
		Update("comment", comment)
	return res.RowsAffected, res.Error
}

// Find 读取一票，不存在时返回 gorm.ErrRecordNotFound
func (s *Store) Find(ctx context.Context, userID string, position int) (Vote, error) {
	var v Vote
	err := s.db.WithContext(ctx).Where("user_id = ? AND position = ?", userID, position).Take(&v).Error
	return v, err
}

// ListByUser 返回用户的所有投票，按位置排序
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Vote, error) {
	votes := make([]Vote, 0)
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("position asc").Find(&votes).Error
	return votes, err
}

// PropagateDemographics 在事务中改写用户所有投票上的资料快照
func (s *Store) PropagateDemographics(tx *gorm.DB, userID string, d user.Demographics) error {
	return tx.Model(&Vote{}).Where("user_id = ?", userID).Updates(map[string]any{
		"voter_age":              d.Age,
		"voter_gender":           d.Gender,
		"voter_group_gamer":      d.Groups.Gamer,
		"voter_group_journalist": d.Groups.Journalist,
		"voter_group_scientist":  d.Groups.Scientist,
		"voter_group_critic":     d.Groups.Critic,
		"voter_group_wasted":     d.Groups.Wasted,
	}).Error
}

// DeleteByUser 在事务中删除用户的所有投票
func (s *Store) DeleteByUser(tx *gorm.DB, userID string) error {
	return tx.Where("user_id = ?", userID).Delete(&Vote{}).Error
}

// scoreRow 是聚合排行榜需要的列
type scoreRow struct {
	ID       uint
	GameID   string
	Position int
	Comment  string
}

// ScoreRows 一次读出过滤后的所有投票，按插入顺序排列
func (s *Store) ScoreRows(ctx context.Context, f FilterOptions) ([]scoreRow, error) {
	rows := make([]scoreRow, 0)
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Scopes(f.Scope).
		Select("id", "game_id", "position", "comment").
		Order("id asc").
		Find(&rows).Error
	return rows, err
}

// tagRow 是统计需要的列
type tagRow struct {
	Genres       game.Tags `gorm:"column:game_genres"`
	Gameplay     game.Tags `gorm:"column:game_gameplay"`
	Perspectives game.Tags `gorm:"column:game_perspectives"`
	Settings     game.Tags `gorm:"column:game_settings"`
	Topics       game.Tags `gorm:"column:game_topics"`
	Platforms    game.Tags `gorm:"column:game_platforms"`
}

// TagRows 一次读出过滤后所有投票的游戏标签
func (s *Store) TagRows(ctx context.Context, f FilterOptions) ([]tagRow, error) {
	rows := make([]tagRow, 0)
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Scopes(f.Scope).
		Select("game_genres", "game_gameplay", "game_perspectives", "game_settings", "game_topics", "game_platforms").
		Find(&rows).Error
	return rows, err
}
