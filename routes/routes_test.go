package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quillpost-api/config"
	"quillpost-api/database/dbtest"
	"quillpost-api/middleware"
	"quillpost-api/models"
	"quillpost-api/services"
)

const testSecret = "routes-secret"

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	registry := prometheus.NewRegistry()
	router := NewRouter(ctx, Dependencies{
		DB: dbtest.New(t),
		Config: &config.Config{
			JWTSecret:          testSecret,
			RateLimitPerMinute: 6000,
			RateLimitBurst:     1000,
		},
		Logger:   zap.NewNop(),
		Registry: registry,
		Metrics:  services.NewMetrics(registry),
		Notifier: services.NopNotifier{},
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) token(subject, username string) string {
	token, err := middleware.SignIdentity(testSecret, models.Identity{TokenIdentifier: subject, Name: username, Username: username}, time.Hour)
	require.NoError(a.t, err)
	return token
}

func (a *apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPing(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "pong")
}

func TestAuthorReaderFlow(t *testing.T) {
	api := newAPI(t)
	author := api.token("idp|author", "author")
	reader := api.token("idp|reader", "reader")

	require.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/posts", "", map[string]string{"title": "x"}).Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/me", author, nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/me", reader, nil).Code)

	w := api.do(http.MethodPost, "/api/v1/posts", author, map[string]interface{}{
		"title":  "Draft",
		"status": "draft",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[models.Post](t, w)

	w = api.do(http.MethodPost, "/api/v1/posts/"+draft.ID+"/like", reader, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/posts/"+draft.ID, reader, nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/posts/"+draft.ID, author, nil).Code)

	status := "published"
	w = api.do(http.MethodPut, "/api/v1/posts/"+draft.ID, author, map[string]interface{}{"status": status})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	post := decode[models.Post](t, w)
	require.NotNil(t, post.PublishedAt)

	require.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/v1/posts/"+post.ID, reader, nil).Code)

	w = api.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.LikeResult{Liked: true, LikeCount: 1}, decode[models.LikeResult](t, w))

	w = api.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/liked", reader, nil)
	require.JSONEq(t, `{"liked":true}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", "", nil)
	require.Equal(t, models.LikeResult{Liked: true, LikeCount: 2}, decode[models.LikeResult](t, w))

	require.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/view", "", nil).Code)
	require.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/v1/posts/missing/view", "", nil).Code)

	w = api.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", reader, map[string]string{"content": strings.Repeat("x", 1001)})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", reader, map[string]string{"content": "Lovely"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", "", nil)
	comments := decode[struct {
		Comments []models.CommentWithAuthor `json:"comments"`
	}](t, w)
	require.Len(t, comments.Comments, 1)
	require.Equal(t, "reader", comments.Comments[0].Author.Username)

	w = api.do(http.MethodGet, "/api/v1/feed?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[models.FeedResponse](t, w)
	require.Len(t, feed.Posts, 1)
	require.False(t, feed.HasMore)
	require.EqualValues(t, 1, feed.Posts[0].ViewCount)

	w = api.do(http.MethodGet, "/api/v1/users/author/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/dashboard/analytics", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	analytics := decode[models.Analytics](t, w)
	require.EqualValues(t, 2, analytics.TotalLikes)
	require.EqualValues(t, 1, analytics.TotalComments)

	w = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `quillpost_likes_toggled_total{action="like"} 2`)
}

func TestFollowRoutes(t *testing.T) {
	api := newAPI(t)
	me := api.token("idp|me", "me")
	other := api.token("idp|other", "other")

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/me", me, nil).Code)
	w := api.do(http.MethodPost, "/api/v1/me", other, nil)
	otherUser := decode[models.User](t, w)

	w = api.do(http.MethodPost, "/api/v1/follows/"+otherUser.ID, me, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"following":true}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/follows/"+otherUser.ID+"/status", me, nil)
	require.JSONEq(t, `{"following":true}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/follows/"+otherUser.ID+"/count", "", nil)
	require.JSONEq(t, `{"count":1}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/users/other", me, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"is_following":true`)

	w = api.do(http.MethodGet, "/api/v1/me/followers", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"username":"me"`)

	require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/users/nobody", "", nil).Code)
}

func TestInvalidTokenIsRejected(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/v1/feed", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
