package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/pkg/token"
)

// CookieConfig 描述会话cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc    *Service
	issuer *token.Issuer
	cookie CookieConfig
}

func NewHandler(svc *Service, issuer *token.Issuer, cookie CookieConfig) *Handler {
	return &Handler{svc: svc, issuer: issuer, cookie: cookie}
}

// ProfileRequest 是资料的请求体，注册时也可以一并提交
type ProfileRequest struct {
	Age    *int     `json:"age" binding:"omitempty,min=0,max=9"`
	Gender string   `json:"gender" binding:"omitempty,gender"`
	Groups []string `json:"groups" binding:"omitempty,max=5,dive,votergroup"`
}

func (p ProfileRequest) toDemographics() (Demographics, error) {
	gender, err := ParseGender(p.Gender)
	if err != nil {
		return Demographics{}, apperr.Input("%v", err)
	}
	groups, err := GroupsFromNames(p.Groups)
	if err != nil {
		return Demographics{}, apperr.Input("%v", err)
	}
	return Demographics{Age: p.Age, Gender: gender, Groups: groups}, nil
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	ProfileRequest
}

type loginRequest struct {
	Login    string `json:"login" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

// Response 是用户的API表示
type Response struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Age      *int     `json:"age"`
	Gender   string   `json:"gender,omitempty"`
	Groups   []string `json:"groups"`
}

func toResponse(u User) Response {
	return Response{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Age:      u.Age,
		Gender:   string(u.Gender),
		Groups:   u.Groups.Names(),
	}
}

func (h *Handler) setSession(c *gin.Context, userID string) error {
	raw, err := h.issuer.Issue(userID, time.Now())
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, raw, int(h.issuer.TTL().Seconds()), "/", "", h.cookie.Secure, true)
	return nil
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

// Register 注册并直接登录
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Input("invalid registration: %v", err))
		return
	}
	d, err := req.toDemographics()
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), Registration{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Demographics: d,
	}, func(u User) error {
		return h.setSession(c, u.ID)
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(u))
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Input("invalid login: %v", err))
		return
	}
	u, err := h.svc.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := h.setSession(c, u.ID); err != nil {
		apperr.Respond(c, apperr.Internal("签发会话", err))
		return
	}
	c.JSON(http.StatusOK, toResponse(u))
}

func (h *Handler) Logout(c *gin.Context) {
	h.clearSession(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(u))
}

// DeleteMe 删除当前账号及其全部投票
func (h *Handler) DeleteMe(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentUserID(c)); err != nil {
		apperr.Respond(c, err)
		return
	}
	h.clearSession(c)
	c.Status(http.StatusNoContent)
}

// UpdateProfile 更新资料，并同步到该用户的所有投票
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Input("invalid profile: %v", err))
		return
	}
	d, err := req.toDemographics()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), CurrentUserID(c), d)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(u))
}
