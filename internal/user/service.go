package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/internal/platform/database"
)

// VoteLinker 是投票模块为用户模块提供的操作。
// 传入的 tx 属于用户模块开启的事务。
type VoteLinker interface {
	PropagateDemographics(tx *gorm.DB, userID string, d Demographics) error
	DeleteUserVotes(tx *gorm.DB, userID string) error
	// AfterUserChange 在影响排行榜的用户变更提交之后调用
	AfterUserChange(ctx context.Context)
}

// Registration 是注册所需的数据
type Registration struct {
	Username     string
	Email        string
	Password     string
	Demographics Demographics
}

type Service struct {
	db         *gorm.DB
	repo       *Repository
	votes      VoteLinker
	bcryptCost int
	log        *zap.Logger
}

func NewService(db *gorm.DB, repo *Repository, votes VoteLinker, bcryptCost int, log *zap.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{db: db, repo: repo, votes: votes, bcryptCost: bcryptCost, log: log.Named("user")}
}

// Get 返回用户
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return User{}, apperr.Internal("读取用户", err, zap.String("user_id", id))
	}
	return u, nil
}

// Register 创建用户，然后执行 after (例如签发会话)。
// after 失败时删除刚创建的用户，调用方看到的是注册失败。
func (s *Service) Register(ctx context.Context, reg Registration, after func(User) error) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return User{}, apperr.Internal("计算密码哈希", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, apperr.Internal("生成用户ID", err)
	}

	u := User{
		ID:           id.String(),
		Username:     strings.TrimSpace(reg.Username),
		Email:        strings.ToLower(strings.TrimSpace(reg.Email)),
		PasswordHash: string(hash),
		Demographics: reg.Demographics,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		if database.IsDuplicateKeyError(err) {
			return User{}, apperr.Input("username or email already taken")
		}
		return User{}, apperr.Internal("创建用户", err, zap.String("username", u.Username))
	}

	if after != nil {
		if err := after(u); err != nil {
			s.compensateRegistration(u.ID)
			return User{}, apperr.Internal("注册后续步骤", err, zap.String("user_id", u.ID))
		}
	}

	s.log.Info("新用户注册", zap.String("user_id", u.ID))
	return u, nil
}

// compensateRegistration 撤销注册。不使用请求上下文，请求被取消时也要删除
func (s *Service) compensateRegistration(id string) {
	if _, err := s.repo.Delete(s.db, id); err != nil {
		s.log.Error("补偿删除用户失败", zap.String("user_id", id), zap.Error(err))
	}
}

// Authenticate 按用户名或邮箱校验密码
func (s *Service) Authenticate(ctx context.Context, login, password string) (User, error) {
	u, err := s.repo.FindByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.Input("invalid username or password")
	}
	if err != nil {
		return User{}, apperr.Internal("查找用户", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, apperr.Input("invalid username or password")
	}
	return u, nil
}

var errUserGone = errors.New("user row vanished during profile update")

// UpdateProfile 在同一个事务里更新用户资料和该用户所有投票上的快照
func (s *Service) UpdateProfile(ctx context.Context, id string, d Demographics) (User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.UpdateDemographics(tx, id, d)
		if err != nil {
			return fmt.Errorf("更新用户资料: %w", err)
		}
		if rows == 0 {
			return errUserGone
		}
		if err := s.votes.PropagateDemographics(tx, id, d); err != nil {
			return fmt.Errorf("同步投票快照: %w", err)
		}
		return nil
	})
	if errors.Is(err, errUserGone) {
		return User{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return User{}, apperr.Internal("更新用户资料", err, zap.String("user_id", id))
	}

	s.votes.AfterUserChange(ctx)
	return s.Get(ctx, id)
}

// Delete 删除用户及其所有投票
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.votes.DeleteUserVotes(tx, id); err != nil {
			return fmt.Errorf("删除投票: %w", err)
		}
		rows, err := s.repo.Delete(tx, id)
		if err != nil {
			return fmt.Errorf("删除用户: %w", err)
		}
		if rows == 0 {
			return errUserGone
		}
		return nil
	})
	if errors.Is(err, errUserGone) {
		return apperr.ErrUnauthorized
	}
	if err != nil {
		return apperr.Internal("删除用户", err, zap.String("user_id", id))
	}

	s.votes.AfterUserChange(ctx)
	s.log.Info("用户已删除", zap.String("user_id", id))
	return nil
}
