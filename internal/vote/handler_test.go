package vote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlpAus/games-top100-backend/internal/user"
)

func newRouter(e *env, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(e.svc, 20)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(user.UserIDKey, userID)
		}
	})
	r.GET("/top", h.GetRankedList)
	r.GET("/top/statistics", h.GetStatistics)
	authed := r.Group("/votes", user.RequireUser())
	authed.PUT("/:position", h.CastVote)
	authed.PUT("/:position/comment", h.UpdateComment)
	authed.GET("/mine", h.GetMyVotes)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerEmptyList(t *testing.T) {
	e := newEnv(t)
	w := do(newRouter(e, ""), http.MethodGet, "/top", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"pages":0,"limit":20}`, w.Body.String())
}

func TestHandlerRejectsBadQueries(t *testing.T) {
	e := newEnv(t)
	r := newRouter(e, "")
	for _, target := range []string{
		"/top?page=0",
		"/top?page=-1",
		"/top?limit=0",
		"/top?limit=4",
		"/top?limit=101",
		"/top?gender=robot",
		"/top?age=12",
		"/top?age=old",
		"/top/statistics?group=pilots",
	} {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, target, "").Code, target)
	}
}

func TestHandlerVoteFlow(t *testing.T) {
	e := newEnv(t)
	a := e.addGame(t, 1, "A", "Action")
	u := e.addUser(t, "u", user.Demographics{Age: intPtr(3)})

	anon := newRouter(e, "")
	assert.Equal(t, http.StatusUnauthorized, do(anon, http.MethodPut, "/votes/1", `{"gameId":"`+a.ID+`"}`).Code)

	r := newRouter(e, u.ID)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/votes/1", `{"gameId":"missing"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/votes/abc", `{"gameId":"`+a.ID+`"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/votes/1/comment", `{"comment":"hi"}`).Code)

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/votes/1", `{"gameId":"`+a.ID+`"}`).Code)
	w := do(r, http.MethodPut, "/votes/1/comment", `{"comment":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"position":1,"comment":"hi"}`, w.Body.String())

	w = do(r, http.MethodGet, "/top?age=3&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list RankedList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 10.0, list.Data[0].Score)
	assert.Equal(t, []string{"hi"}, list.Data[0].Comments)
	assert.Equal(t, "A", list.Data[0].Game.Title)

	w = do(r, http.MethodGet, "/top?age=0", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Data)

	w = do(r, http.MethodGet, "/top/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, []TagCount{{Name: "Action", Count: 1}}, stats.Genres)

	w = do(r, http.MethodGet, "/votes/mine", "")
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Data []UserVote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "hi", mine.Data[0].Comment)
}

func TestHandlerCommentLength(t *testing.T) {
	e := newEnv(t)
	a := e.addGame(t, 1, "A")
	u := e.addUser(t, "u", user.Demographics{})
	r := newRouter(e, u.ID)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/votes/1", `{"gameId":"`+a.ID+`"}`).Code)

	// 上限按字符计，多字节字符不会提前触发
	atLimit := strings.Repeat("好", MaxCommentLength)
	w := do(r, http.MethodPut, "/votes/1/comment", `{"comment":"`+atLimit+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, "/votes/1/comment", `{"comment":"`+atLimit+`x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
