package user

import (
	"fmt"
	"time"
)

// Gender 是封闭的性别枚举，空串表示未填写
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender 解析性别，空串返回 GenderUnset
func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case GenderUnset, GenderMale, GenderFemale, GenderOther:
		return g, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// 年龄段取值范围
const (
	MinAge = 0
	MaxAge = 9
)

// GroupNames 是所有投票人群组的名字
var GroupNames = []string{"gamer", "journalist", "scientist", "critic", "wasted"}

// Groups 是用户所属的群组，可以同时属于多个
type Groups struct {
	Gamer      bool `gorm:"not null;default:false" json:"gamer"`
	Journalist bool `gorm:"not null;default:false" json:"journalist"`
	Scientist  bool `gorm:"not null;default:false" json:"scientist"`
	Critic     bool `gorm:"not null;default:false" json:"critic"`
	Wasted     bool `gorm:"not null;default:false" json:"wasted"`
}

// IsGroupName 判断群组名是否合法
func IsGroupName(name string) bool {
	for _, n := range GroupNames {
		if n == name {
			return true
		}
	}
	return false
}

// GroupsFromNames 把群组名列表转换为 Groups
func GroupsFromNames(names []string) (Groups, error) {
	var g Groups
	for _, n := range names {
		switch n {
		case "gamer":
			g.Gamer = true
		case "journalist":
			g.Journalist = true
		case "scientist":
			g.Scientist = true
		case "critic":
			g.Critic = true
		case "wasted":
			g.Wasted = true
		default:
			return Groups{}, fmt.Errorf("unknown group %q", n)
		}
	}
	return g, nil
}

// Names 返回已选中的群组名，顺序与 GroupNames 一致
func (g Groups) Names() []string {
	out := make([]string, 0, len(GroupNames))
	flags := []bool{g.Gamer, g.Journalist, g.Scientist, g.Critic, g.Wasted}
	for i, on := range flags {
		if on {
			out = append(out, GroupNames[i])
		}
	}
	return out
}

// Demographics 是用户的人口统计属性，投票时会被快照到投票记录上
type Demographics struct {
	// Age 是年龄段 0..9，nil 表示未填写
	Age    *int   `gorm:"column:age"`
	Gender Gender `gorm:"type:varchar(16);not null;default:''"`
	Groups Groups `gorm:"embedded;embeddedPrefix:group_"`
}

// User 是注册用户
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Username     string `gorm:"uniqueIndex;type:varchar(32);not null"`
	Email        string `gorm:"uniqueIndex;type:varchar(254);not null"`
	PasswordHash string `gorm:"not null"`

	Demographics `gorm:"embedded"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
