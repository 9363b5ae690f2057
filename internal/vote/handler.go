package vote

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/internal/user"
)

type Handler struct {
	svc          *Service
	defaultLimit int
}

func NewHandler(svc *Service, defaultLimit int) *Handler {
	return &Handler{svc: svc, defaultLimit: defaultLimit}
}

type castRequest struct {
	GameID string `json:"gameId" binding:"required,max=36"`
}

// commentRequest 的长度上限由 Service.UpdateComment 按 MaxCommentLength 校验
type commentRequest struct {
	Comment string `json:"comment"`
}

type filterQuery struct {
	Gender string `form:"gender"`
	Age    *int   `form:"age"`
	Group  string `form:"group"`
}

// listQuery 中缺省的 page 和 limit 取默认值，显式给出的值原样校验
type listQuery struct {
	Page  *int `form:"page"`
	Limit *int `form:"limit"`
	filterQuery
}

func positionParam(c *gin.Context) (int, error) {
	p, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		return 0, apperr.Input("position must be an integer")
	}
	return p, nil
}

// CastVote 处理 PUT /votes/:position
func (h *Handler) CastVote(c *gin.Context) {
	position, err := positionParam(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Input("invalid vote: %v", err))
		return
	}
	if err := h.svc.CastVote(c.Request.Context(), user.CurrentUserID(c), position, req.GameID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": position, "gameId": req.GameID})
}

// UpdateComment 处理 PUT /votes/:position/comment
func (h *Handler) UpdateComment(c *gin.Context) {
	position, err := positionParam(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Input("invalid comment: %v", err))
		return
	}
	comment, err := h.svc.UpdateComment(c.Request.Context(), user.CurrentUserID(c), position, req.Comment)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": position, "comment": comment})
}

// GetMyVotes 处理 GET /votes/mine
func (h *Handler) GetMyVotes(c *gin.Context) {
	votes, err := h.svc.GetUserVotes(c.Request.Context(), user.CurrentUserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": votes})
}

// GetRankedList 处理 GET /top
func (h *Handler) GetRankedList(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apperr.Respond(c, apperr.Input("invalid query: %v", err))
		return
	}
	page, limit := 1, h.defaultLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	f, err := ParseFilter(q.Gender, q.Age, q.Group)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	list, err := h.svc.GetRankedList(c.Request.Context(), page, limit, f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetStatistics 处理 GET /top/statistics
func (h *Handler) GetStatistics(c *gin.Context) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apperr.Respond(c, apperr.Input("invalid query: %v", err))
		return
	}
	f, err := ParseFilter(q.Gender, q.Age, q.Group)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	stats, err := h.svc.GetStatistics(c.Request.Context(), f)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
