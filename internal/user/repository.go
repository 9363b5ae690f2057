package user

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound 表示用户不存在
var ErrNotFound = errors.New("user not found")

// Repository 封装 users 表的读写
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	return u, err
}

// FindByLogin 按用户名或邮箱查找用户
func (r *Repository) FindByLogin(ctx context.Context, login string) (User, error) {
	var u User
	login = strings.TrimSpace(login)
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// Delete 在给定的事务中删除用户，返回删除的行数
func (r *Repository) Delete(tx *gorm.DB, id string) (int64, error) {
	res := tx.Where("id = ?", id).Delete(&User{})
	return res.RowsAffected, res.Error
}

// UpdateDemographics 在给定的事务中更新人口统计属性，返回匹配的行数
func (r *Repository) UpdateDemographics(tx *gorm.DB, id string, d Demographics) (int64, error) {
	res := tx.Model(&User{}).Where("id = ?", id).Updates(map[string]any{
		"age":              d.Age,
		"gender":           d.Gender,
		"group_gamer":      d.Groups.Gamer,
		"group_journalist": d.Groups.Journalist,
		"group_scientist":  d.Groups.Scientist,
		"group_critic":     d.Groups.Critic,
		"group_wasted":     d.Groups.Wasted,
	})
	return res.RowsAffected, res.Error
}
