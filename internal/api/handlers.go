package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/dataloader"
	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/metrics"
	"github.com/UkralStul/modora-posts-service/internal/repository"
)

// HealthMessage - текст ответа /api/health.
const HealthMessage = "MODORA Backend is running"

// Handler обслуживает REST-эндпоинты постов. Бизнес-логики здесь нет:
// разбор запроса, вызов репозитория, перевод результата в статус.
type Handler struct {
	repo    *repository.Repository
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewHandler создает обработчик.
func NewHandler(repo *repository.Repository, collector *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, metrics: collector, logger: logger.Named("api")}
}

func decodeBody(r *http.Request, dst any) bool {
	return json.NewDecoder(r.Body).Decode(dst) == nil
}

// ListPosts handles GET /api/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := h.repo.ListPosts(r.Context(), repository.ListOptions{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	})
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch posts")
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

// GetPost handles GET /api/posts/{id}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		post domain.Post
		err  error
	)
	if loaders := dataloader.For(r.Context()); loaders != nil {
		post, err = loaders.LoadPost(r.Context(), id)
	} else {
		post, err = h.repo.GetPost(r.Context(), id)
	}
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /api/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input repository.CreatePostInput
	if !decodeBody(r, &input) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	post, err := h.repo.CreatePost(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err, "Failed to create post")
		return
	}
	h.metrics.PostsCreated.Inc()
	respondJSON(w, http.StatusCreated, post)
}

// UpdatePost handles PUT /api/posts/{id}
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var input repository.UpdatePostInput
	if !decodeBody(r, &input) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	post, err := h.repo.UpdatePost(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, r, err, "Failed to update post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/{id}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err, "Failed to delete post")
		return
	}
	h.metrics.PostsDeleted.Inc()
	respondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// Upvote handles POST /api/posts/{id}/upvote
func (h *Handler) Upvote(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.Upvote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "Failed to upvote post")
		return
	}
	h.metrics.Votes.WithLabelValues("up").Inc()
	respondJSON(w, http.StatusOK, map[string]int{"upvotes": n})
}

// Downvote handles POST /api/posts/{id}/downvote
func (h *Handler) Downvote(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.Downvote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "Failed to downvote post")
		return
	}
	h.metrics.Votes.WithLabelValues("down").Inc()
	respondJSON(w, http.StatusOK, map[string]int{"downvotes": n})
}

// AddComment handles POST /api/posts/{id}/comments
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var input repository.AddCommentInput
	if !decodeBody(r, &input) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	comment, err := h.repo.AddComment(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, r, err, "Failed to add comment")
		return
	}
	h.metrics.CommentsCreated.Inc()
	respondJSON(w, http.StatusCreated, comment)
}

// CommentThread handles GET /api/posts/{id}/comments/thread
func (h *Handler) CommentThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.repo.CommentThread(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "Failed to fetch comments")
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

// GenerateInterpretations handles POST /api/posts/{id}/interpretations
func (h *Handler) GenerateInterpretations(w http.ResponseWriter, r *http.Request) {
	interps, err := h.repo.GenerateInterpretations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "Failed to generate interpretations")
		return
	}
	respondJSON(w, http.StatusOK, interps)
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": HealthMessage})
}
