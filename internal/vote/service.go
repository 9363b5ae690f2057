package vote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/internal/user"
)

// GameLookup 按ID读取游戏
type GameLookup interface {
	FindByID(ctx context.Context, id string) (game.Game, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]game.Game, error)
}

// UserLookup 按ID读取用户
type UserLookup interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

// RankedEntry 是排行榜中的一个游戏
type RankedEntry struct {
	Score    float64  `json:"score"`
	Votes    int      `json:"votes"`
	Comments []string `json:"comments"`
	GameID   string   `json:"gameId"`
	// Game 在游戏已被删除时为 nil
	Game *game.Response `json:"game"`
}

// RankedList 是一页排行榜
type RankedList struct {
	Data  []RankedEntry `json:"data"`
	Pages int           `json:"pages"`
	Limit int           `json:"limit"`
}

// UserVote 是用户自己的一票
type UserVote struct {
	Position  int      `json:"position"`
	Comment   string   `json:"comment"`
	GameID    string   `json:"gameId"`
	Title     string   `json:"title"`
	Year      int      `json:"year"`
	Platforms []string `json:"platforms"`
	Icon      string   `json:"icon,omitempty"`
}

type Service struct {
	store  *Store
	games  GameLookup
	users  UserLookup
	scorer Scorer
	cache  *ListCache
	log    *zap.Logger
}

func NewService(store *Store, games GameLookup, users UserLookup, scorer Scorer, cache *ListCache, log *zap.Logger) *Service {
	return &Service{store: store, games: games, users: users, scorer: scorer, cache: cache, log: log.Named("vote")}
}

func validatePosition(position int) error {
	if position < 1 || position > MaxPosition {
		return apperr.Input("position must be between 1 and %d", MaxPosition)
	}
	return nil
}

// CastVote 在 (userID, position) 上投票给 gameID，重复投票覆盖之前的游戏
func (s *Service) CastVote(ctx context.Context, userID string, position int, gameID string) error {
	if err := validatePosition(position); err != nil {
		return err
	}
	g, err := s.games.FindByID(ctx, gameID)
	if errors.Is(err, game.ErrNotFound) {
		return apperr.NotFound("game not found")
	}
	if err != nil {
		return apperr.Internal("读取游戏", err, zap.String("game_id", gameID))
	}
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return apperr.ErrUnauthorized
	}
	if err != nil {
		return apperr.Internal("读取用户", err, zap.String("user_id", userID))
	}

	v := Vote{
		UserID:   userID,
		Position: position,
		GameID:   g.ID,
		Voter:    u.Demographics,
		Game:     SnapshotOf(g),
	}
	if err := s.store.Upsert(ctx, &v); err != nil {
		return apperr.Internal("写入投票", err,
			zap.String("user_id", userID), zap.Int("position", position), zap.String("game_id", gameID))
	}

	s.cache.Invalidate(ctx)
	return nil
}

// UpdateComment 修改 (userID, position) 上的评论，返回保存后的评论
func (s *Service) UpdateComment(ctx context.Context, userID string, position int, comment string) (string, error) {
	if err := validatePosition(position); err != nil {
		return "", err
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return "", apperr.Input("comment must be at most %d characters", MaxCommentLength)
	}

	rows, err := s.store.SetComment(ctx, userID, position, comment)
	if err != nil {
		return "", apperr.Internal("写入评论", err, zap.String("user_id", userID), zap.Int("position", position))
	}
	if rows == 0 {
		return "", apperr.NotFound("vote not found")
	}

	s.cache.Invalidate(ctx)
	return comment, nil
}

// GetRankedList 返回过滤后的排行榜的第 page 页
func (s *Service) GetRankedList(ctx context.Context, page, limit int, f FilterOptions) (RankedList, error) {
	if err := validatePage(page, limit); err != nil {
		return RankedList{}, err
	}

	field := fmt.Sprintf("list:%s:%d:%d", f.Key(), page, limit)
	gen, cached, ok := s.cache.Lookup(ctx, field)
	if ok {
		var out RankedList
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
	}

	rows, err := s.store.ScoreRows(ctx, f)
	if err != nil {
		return RankedList{}, apperr.Internal("读取投票", err, zap.String("filter", f.Key()))
	}
	groups := rankGroups(rows, s.scorer)
	total := len(groups)
	from, to := pageBounds(total, page, limit)
	groups = groups[from:to]

	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.GameID
	}
	games, err := s.games.FindByIDs(ctx, ids)
	if err != nil {
		return RankedList{}, apperr.Internal("读取游戏", err)
	}

	out := RankedList{
		Data:  make([]RankedEntry, 0, len(groups)),
		Pages: pageCount(total, limit),
		Limit: limit,
	}
	for _, g := range groups {
		entry := RankedEntry{Score: g.Score, Votes: g.Votes, Comments: g.Comments, GameID: g.GameID}
		if gm, ok := games[g.GameID]; ok {
			resp := game.ToResponse(gm)
			entry.Game = &resp
		}
		out.Data = append(out.Data, entry)
	}

	if data, err := json.Marshal(out); err == nil {
		s.cache.Store(ctx, gen, field, data)
	}
	return out, nil
}

// GetStatistics 返回过滤后投票的六个维度的标签计数
func (s *Service) GetStatistics(ctx context.Context, f FilterOptions) (Statistics, error) {
	field := "stats:" + f.Key()
	gen, cached, ok := s.cache.Lookup(ctx, field)
	if ok {
		var out Statistics
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
	}

	rows, err := s.store.TagRows(ctx, f)
	if err != nil {
		return Statistics{}, apperr.Internal("读取投票标签", err, zap.String("filter", f.Key()))
	}
	out := countTags(rows)

	if data, err := json.Marshal(out); err == nil {
		s.cache.Store(ctx, gen, field, data)
	}
	return out, nil
}

// GetUserVotes 返回用户的所有投票，按位置排序
func (s *Service) GetUserVotes(ctx context.Context, userID string) ([]UserVote, error) {
	votes, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("读取用户投票", err, zap.String("user_id", userID))
	}

	ids := make([]string, 0, len(votes))
	for _, v := range votes {
		ids = append(ids, v.GameID)
	}
	games, err := s.games.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("读取游戏", err)
	}

	out := make([]UserVote, 0, len(votes))
	for _, v := range votes {
		platforms := []string(v.Game.Platforms)
		if platforms == nil {
			platforms = []string{}
		}
		out = append(out, UserVote{
			Position:  v.Position,
			Comment:   v.Comment,
			GameID:    v.GameID,
			Title:     v.Game.Title,
			Year:      v.Game.Year,
			Platforms: platforms,
			Icon:      game.ImageURL(games[v.GameID].Cover),
		})
	}
	return out, nil
}

// PropagateDemographics 实现 user.VoteLinker
func (s *Service) PropagateDemographics(tx *gorm.DB, userID string, d user.Demographics) error {
	return s.store.PropagateDemographics(tx, userID, d)
}

// DeleteUserVotes 实现 user.VoteLinker
func (s *Service) DeleteUserVotes(tx *gorm.DB, userID string) error {
	return s.store.DeleteByUser(tx, userID)
}

// AfterUserChange 实现 user.VoteLinker
func (s *Service) AfterUserChange(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

// InvalidateCache 使所有缓存的排行榜失效，供健康检查在Redis恢复后调用
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
