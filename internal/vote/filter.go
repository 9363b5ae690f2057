package vote

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/internal/user"
)

// FilterOptions 把排行榜和统计限制在一部分投票人上，零值表示不过滤
type FilterOptions struct {
	Gender user.Gender
	Age    *int
	Group  string
}

// ParseFilter 校验查询参数，未知取值返回输入错误
func ParseFilter(gender string, age *int, group string) (FilterOptions, error) {
	var f FilterOptions
	g, err := user.ParseGender(gender)
	if err != nil {
		return f, apperr.Input("unknown gender filter %q", gender)
	}
	f.Gender = g

	if age != nil {
		if *age < user.MinAge || *age > user.MaxAge {
			return f, apperr.Input("age filter must be between %d and %d", user.MinAge, user.MaxAge)
		}
		a := *age
		f.Age = &a
	}

	if group != "" && !user.IsGroupName(group) {
		return f, apperr.Input("unknown group filter %q", group)
	}
	f.Group = group
	return f, nil
}

// Scope 把过滤条件加到查询上
func (f FilterOptions) Scope(db *gorm.DB) *gorm.DB {
	if f.Gender != user.GenderUnset {
		db = db.Where(clause.Eq{Column: clause.Column{Name: "voter_gender"}, Value: string(f.Gender)})
	}
	if f.Age != nil {
		db = db.Where(clause.Eq{Column: clause.Column{Name: "voter_age"}, Value: *f.Age})
	}
	if f.Group != "" {
		// 群组名已在 ParseFilter 中校验，只可能是固定的列名之一
		db = db.Where(clause.Eq{Column: clause.Column{Name: "voter_group_" + f.Group}, Value: true})
	}
	return db
}

// Key 返回过滤条件的规范化表示，用作缓存键的一部分
func (f FilterOptions) Key() string {
	var b strings.Builder
	b.WriteString("g=")
	b.WriteString(string(f.Gender))
	b.WriteString(";a=")
	if f.Age != nil {
		b.WriteString(strconv.Itoa(*f.Age))
	}
	b.WriteString(";grp=")
	b.WriteString(f.Group)
	return b.String()
}
