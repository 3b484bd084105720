package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/UkralStul/modora-posts-service/internal/dataloader"
	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/metrics"
	"github.com/UkralStul/modora-posts-service/internal/repository"
	"github.com/UkralStul/modora-posts-service/internal/storage/inmemory"
)

type testServer struct {
	router  http.Handler
	repo    *repository.Repository
	metrics *metrics.Collector
}

func newTestServer(t *testing.T, limiter *IPRateLimiter) *testServer {
	t.Helper()
	logger := zap.NewNop()
	collector := metrics.New("modora")
	repo := repository.New(metrics.InstrumentStore(inmemory.New(logger), collector), logger)
	if limiter == nil {
		limiter = NewIPRateLimiter(rate.Inf, 1)
	}
	router := NewRouter(Deps{
		Repo:        repo,
		Loaders:     dataloader.NewLoaders(repo, time.Millisecond),
		Metrics:     collector,
		Limiter:     limiter,
		CORSOrigins: []string{"*"},
		Logger:      logger,
	})
	return &testServer{router: router, repo: repo, metrics: collector}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func postBody() map[string]any {
	return map[string]any{
		"title":    "First week",
		"content":  "New job, new city.",
		"tags":     []string{"career", "Mental Health"},
		"lenses":   []string{"therapist", "cultural"},
		"userId":   "u1",
		"username": "alice",
	}
}

func (s *testServer) createPost(t *testing.T, body map[string]any) domain.Post {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/posts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Post](t, rec)
}

// readOnlyStore читается, но не сохраняет: так выглядит сбой диска
type readOnlyStore struct{}

func (readOnlyStore) Load(ctx context.Context) *domain.Document { return domain.NewDocument() }

func (readOnlyStore) Save(ctx context.Context, doc *domain.Document) error {
	return errors.New("open posts.json: read-only file system")
}

func TestCreatePost_StorageFailureIsHidden(t *testing.T) {
	logger := zap.NewNop()
	collector := metrics.New("modora")
	repo := repository.New(readOnlyStore{}, logger)
	router := NewRouter(Deps{
		Repo:        repo,
		Loaders:     dataloader.NewLoaders(repo, time.Millisecond),
		Metrics:     collector,
		Limiter:     NewIPRateLimiter(rate.Inf, 1),
		CORSOrigins: []string{"*"},
		Logger:      logger,
	})
	s := &testServer{router: router, repo: repo, metrics: collector}

	rec := s.do(t, http.MethodPost, "/api/posts", postBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to create post"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "read-only")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"OK","message":"MODORA Backend is running"}`, rec.Body.String())
}

func TestCreateUpvoteGet(t *testing.T) {
	s := newTestServer(t, nil)

	post := s.createPost(t, postBody())
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, 0, post.Upvotes)

	rec := s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/upvote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"upvotes":1}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/posts/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Post](t, rec)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 0, got.Downvotes)
}

func TestDownvote(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())

	s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/downvote", nil)
	rec := s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/downvote", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"downvotes":2}`, rec.Body.String())
}

func TestCreatePost_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	body := postBody()
	delete(body, "content")
	rec := s.do(t, http.MethodPost, "/api/posts", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Contains(t, resp.Error, "content")

	rec = s.do(t, http.MethodGet, "/api/posts", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreatePost_MalformedJSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/posts", `{"content":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestCreatePost_Anonymous(t *testing.T) {
	s := newTestServer(t, nil)

	body := postBody()
	body["isAnonymous"] = true
	post := s.createPost(t, body)

	assert.Equal(t, domain.AnonymousUsername, post.Username)
	assert.True(t, post.IsAnonymous)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"get", http.MethodGet, "/api/posts/missing", nil},
		{"update", http.MethodPut, "/api/posts/missing", map[string]any{"title": "x"}},
		{"delete", http.MethodDelete, "/api/posts/missing", nil},
		{"upvote", http.MethodPost, "/api/posts/missing/upvote", nil},
		{"downvote", http.MethodPost, "/api/posts/missing/downvote", nil},
		{"comment", http.MethodPost, "/api/posts/missing/comments", map[string]any{"content": "hi", "userId": "u2", "username": "bob"}},
		{"thread", http.MethodGet, "/api/posts/missing/comments/thread", nil},
		{"interpretations", http.MethodPost, "/api/posts/missing/interpretations", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"error":"post not found"}`, rec.Body.String())
		})
	}
}

func TestListPosts_NewestFirstAndFilters(t *testing.T) {
	s := newTestServer(t, nil)

	first := s.createPost(t, postBody())
	other := postBody()
	other["tags"] = []string{"family"}
	second := s.createPost(t, other)
	s.do(t, http.MethodPost, "/api/posts/"+first.ID+"/upvote", nil)

	rec := s.do(t, http.MethodGet, "/api/posts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode[[]domain.Post](t, rec)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	rec = s.do(t, http.MethodGet, "/api/posts?category=mental-health", nil)
	posts = decode[[]domain.Post](t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)

	rec = s.do(t, http.MethodGet, "/api/posts?sort=upvoted", nil)
	posts = decode[[]domain.Post](t, rec)
	require.Len(t, posts, 2)
	assert.Equal(t, first.ID, posts[0].ID)

	rec = s.do(t, http.MethodGet, "/api/posts?sort=random", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePost(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())

	rec := s.do(t, http.MethodPut, "/api/posts/"+post.ID, map[string]any{"title": "Updated", "tags": []string{}})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decode[domain.Post](t, rec)
	require.NotNil(t, updated.Title)
	assert.Equal(t, "Updated", *updated.Title)
	assert.Equal(t, post.Content, updated.Content)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, post.Lenses, updated.Lenses)

	rec = s.do(t, http.MethodPut, "/api/posts/"+post.ID, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePost(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())

	rec := s.do(t, http.MethodDelete, "/api/posts/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Post deleted successfully"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentsAndThread(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())

	rec := s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comments",
		map[string]any{"content": "Hang in there", "userId": "u2", "username": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	root := decode[domain.Comment](t, rec)
	assert.Equal(t, post.ID, root.PostID)
	assert.Nil(t, root.ParentID)
	assert.Contains(t, rec.Body.String(), `"parentId":null`)

	rec = s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comments",
		map[string]any{"content": "Thanks", "userId": "u1", "username": "alice", "parentId": root.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	reply := decode[domain.Comment](t, rec)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	rec = s.do(t, http.MethodGet, "/api/posts/"+post.ID, nil)
	stored := decode[domain.Post](t, rec)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, root.ID, stored.Comments[0].ID)
	assert.Empty(t, stored.Comments[0].Replies)

	rec = s.do(t, http.MethodGet, "/api/posts/"+post.ID+"/comments/thread", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[[]domain.Comment](t, rec)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, reply.ID, thread[0].Replies[0].ID)
}

func TestAddComment_Validation(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())

	rec := s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comments", map[string]any{"content": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comments", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateInterpretations(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())

	rec := s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/interpretations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	interps := decode[[]domain.Interpretation](t, rec)
	require.Len(t, interps, 2)
	assert.Equal(t, domain.LensTherapist, interps[0].Lens)
	assert.Equal(t, domain.LensCultural, interps[1].Lens)

	rec = s.do(t, http.MethodGet, "/api/posts/"+post.ID, nil)
	stored := decode[domain.Post](t, rec)
	assert.Len(t, stored.Interpretations, 2)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, NewIPRateLimiter(rate.Limit(0.001), 2))

	for i := 0; i < 2; i++ {
		s.createPost(t, postBody())
	}

	rec := s.do(t, http.MethodPost, "/api/posts", postBody())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please wait."}`, rec.Body.String())

	// чтение не ограничивается
	rec = s.do(t, http.MethodGet, "/api/posts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_IgnoresForwardedHeadersByDefault(t *testing.T) {
	s := newTestServer(t, NewIPRateLimiter(rate.Limit(0.001), 1))

	post := func(forwardedFor string) int {
		data, err := json.Marshal(postBody())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(data))
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.Header.Set("X-Real-IP", forwardedFor)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, post("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.3"))
}

func TestRateLimit_TrustedProxyUsesForwardedIP(t *testing.T) {
	logger := zap.NewNop()
	collector := metrics.New("modora")
	repo := repository.New(inmemory.New(logger), logger)
	router := NewRouter(Deps{
		Repo:        repo,
		Loaders:     dataloader.NewLoaders(repo, time.Millisecond),
		Metrics:     collector,
		Limiter:     NewIPRateLimiter(rate.Limit(0.001), 1),
		CORSOrigins: []string{"*"},
		TrustProxy:  true,
		Logger:      logger,
	})

	post := func(realIP string) int {
		data, err := json.Marshal(postBody())
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(data))
		req.Header.Set("X-Real-IP", realIP)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, post("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.1"))
	assert.Equal(t, http.StatusCreated, post("203.0.113.2"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	post := s.createPost(t, postBody())
	s.do(t, http.MethodPost, "/api/posts/"+post.ID+"/upvote", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "modora_posts_created_total 1")
	assert.Contains(t, body, `modora_votes_total{direction="up"} 1`)
	assert.Contains(t, body, `route="/api/posts/{id}/upvote"`)
}
