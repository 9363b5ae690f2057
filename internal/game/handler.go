package game

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
)

// ImageBaseURL 是封面和截图的静态文件路由前缀
const ImageBaseURL = "/images/games/"

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Response 是游戏的API表示
type Response struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Year         int      `json:"year"`
	Description  string   `json:"description"`
	Genres       []string `json:"genres"`
	Gameplay     []string `json:"gameplay"`
	Perspectives []string `json:"perspectives"`
	Settings     []string `json:"settings"`
	Topics       []string `json:"topics"`
	Platforms    []string `json:"platforms"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Screenshots  []string `json:"screenshots"`
}

// ImageURL 把图片文件名转换为可访问的路径，文件名为空时返回空串。
// 已经是绝对地址的图片原样返回。
func ImageURL(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return ImageBaseURL + name
}

func orEmpty(t Tags) []string {
	if t == nil {
		return []string{}
	}
	return t
}

// ToResponse 把模型转换为API响应
func ToResponse(g Game) Response {
	shots := make([]string, 0, len(g.Screenshots))
	for _, s := range g.Screenshots {
		shots = append(shots, ImageURL(s))
	}
	return Response{
		ID:           g.ID,
		Title:        g.Title,
		Year:         g.Year,
		Description:  g.Description,
		Genres:       orEmpty(g.Genres),
		Gameplay:     orEmpty(g.Gameplay),
		Perspectives: orEmpty(g.Perspectives),
		Settings:     orEmpty(g.Settings),
		Topics:       orEmpty(g.Topics),
		Platforms:    orEmpty(g.Platforms),
		ImageURL:     ImageURL(g.Cover),
		Screenshots:  shots,
	}
}

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetGame 根据ID获取单个游戏
func (h *Handler) GetGame(c *gin.Context) {
	g, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		apperr.Respond(c, apperr.NotFound("game not found"))
		return
	}
	if err != nil {
		apperr.Respond(c, apperr.Internal("读取游戏", err))
		return
	}
	c.JSON(http.StatusOK, ToResponse(g))
}

type searchQuery struct {
	Q     string `form:"q" binding:"required,min=1,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// SearchGames 按标题前缀搜索游戏，用于投票时选择游戏
func (h *Handler) SearchGames(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apperr.Respond(c, apperr.Input("invalid search query: %v", err))
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	games, err := h.repo.Search(c.Request.Context(), q.Q, limit)
	if err != nil {
		apperr.Respond(c, apperr.Internal("搜索游戏", err))
		return
	}
	out := make([]Response, 0, len(games))
	for _, g := range games {
		out = append(out, ToResponse(g))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
