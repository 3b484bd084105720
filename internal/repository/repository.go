// Package repository реализует операции над постами поверх DocumentStore.
// Каждая операция читает документ целиком, меняет его в памяти и записывает целиком.
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
	"github.com/UkralStul/modora-posts-service/internal/domain"
	"github.com/UkralStul/modora-posts-service/internal/idgen"
	"github.com/UkralStul/modora-posts-service/internal/interpret"
	"github.com/UkralStul/modora-posts-service/internal/storage"
)

// Порядок выдачи ленты.
const (
	SortRecent  = "recent"
	SortUpvoted = "upvoted"
)

// CreatePostInput - поля нового поста.
type CreatePostInput struct {
	Title       string        `json:"title"`
	Content     string        `json:"content" validate:"required"`
	Tags        []string      `json:"tags"`
	Lenses      []domain.Lens `json:"lenses" validate:"dive,lens"`
	IsAnonymous bool          `json:"isAnonymous"`
	UserID      string        `json:"userId" validate:"required"`
	Username    string        `json:"username" validate:"required"`
}

// UpdatePostInput - частичное обновление. nil означает "поле не передано",
// указатель на пустое значение - "передано и пустое".
type UpdatePostInput struct {
	Title   *string        `json:"title"`
	Content *string        `json:"content"`
	Tags    *[]string      `json:"tags"`
	Lenses  *[]domain.Lens `json:"lenses"`
}

// AddCommentInput - поля нового комментария.
type AddCommentInput struct {
	Content  string  `json:"content" validate:"required"`
	UserID   string  `json:"userId" validate:"required"`
	Username string  `json:"username" validate:"required"`
	ParentID *string `json:"parentId"`
}

// ListOptions - фильтр и сортировка ленты.
type ListOptions struct {
	Category string
	Sort     string
}

// Repository - хранилище постов.
type Repository struct {
	store  storage.DocumentStore
	logger *zap.Logger
	newID  func() string
	now    func() time.Time

	// mu сериализует изменения: load -> mutate -> save выполняется атомарно
	// относительно других изменений в этом процессе.
	mu sync.Mutex
}

// Option настраивает Repository.
type Option func(*Repository)

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithClock подменяет источник текущего времени.
func WithClock(fn func() time.Time) Option {
	return func(r *Repository) { r.now = fn }
}

// New создает репозиторий поверх хранилища документа.
func New(store storage.DocumentStore, logger *zap.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: logger.Named("repository"),
		newID:  idgen.New,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// === Post Methods ===

func (r *Repository) ListPosts(ctx context.Context, opts ListOptions) ([]domain.Post, error) {
	switch opts.Sort {
	case "", SortRecent, SortUpvoted:
	default:
		return nil, apperr.Validation("sort must be one of: %s, %s", SortRecent, SortUpvoted)
	}

	posts := r.store.Load(ctx).Posts
	if opts.Category != "" {
		posts = filterByCategory(posts, opts.Category)
	}
	if opts.Sort == SortUpvoted {
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Upvotes > posts[j].Upvotes
		})
	}
	return posts, nil
}

// filterByCategory оставляет посты, у которых хотя бы один тег содержит категорию.
// Первый дефис категории заменяется пробелом: "mental-health" находит тег "Mental Health".
func filterByCategory(posts []domain.Post, category string) []domain.Post {
	needle := strings.ToLower(strings.Replace(category, "-", " ", 1))
	filtered := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered
}

func (r *Repository) GetPost(ctx context.Context, id string) (domain.Post, error) {
	doc := r.store.Load(ctx)
	idx := doc.IndexOf(id)
	if idx < 0 {
		return domain.Post{}, apperr.NotFound("post")
	}
	return doc.Posts[idx], nil
}

// GetPosts находит сразу несколько постов за одно чтение документа.
// Отсутствующих id в результате нет.
func (r *Repository) GetPosts(ctx context.Context, ids []string) map[string]domain.Post {
	doc := r.store.Load(ctx)
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	found := make(map[string]domain.Post, len(ids))
	for _, p := range doc.Posts {
		if _, ok := wanted[p.ID]; ok {
			found[p.ID] = p
		}
	}
	return found
}

func (r *Repository) CreatePost(ctx context.Context, input CreatePostInput) (domain.Post, error) {
	if err := validateStruct(input); err != nil {
		return domain.Post{}, err
	}

	title := input.Title
	post := domain.Post{
		ID:          r.newID(),
		UserID:      input.UserID,
		Username:    input.Username,
		Title:       &title,
		Content:     input.Content,
		Tags:        input.Tags,
		Lenses:      input.Lenses,
		CreatedAt:   domain.NewTimestamp(r.now()),
		IsAnonymous: input.IsAnonymous,
	}
	if post.IsAnonymous {
		post.Username = domain.AnonymousUsername
	}
	post.Normalize()

	err := r.mutate(ctx, func(doc *domain.Document) error {
		doc.Posts = append([]domain.Post{post}, doc.Posts...)
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}

	r.logger.Info("post created", zap.String("postID", post.ID), zap.Bool("anonymous", post.IsAnonymous))
	return post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, id string, input UpdatePostInput) (domain.Post, error) {
	if input.Content != nil && *input.Content == "" {
		return domain.Post{}, apperr.Validation("content cannot be empty")
	}
	if input.Lenses != nil {
		if err := validateLenses(*input.Lenses); err != nil {
			return domain.Post{}, err
		}
	}

	var updated domain.Post
	err := r.mutate(ctx, func(doc *domain.Document) error {
		idx := doc.IndexOf(id)
		if idx < 0 {
			return apperr.NotFound("post")
		}
		post := &doc.Posts[idx]
		if input.Title != nil {
			title := *input.Title
			post.Title = &title
		}
		if input.Content != nil {
			post.Content = *input.Content
		}
		if input.Tags != nil {
			post.Tags = *input.Tags
		}
		if input.Lenses != nil {
			post.Lenses = *input.Lenses
		}
		post.Normalize()
		updated = *post
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	return updated, nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	err := r.mutate(ctx, func(doc *domain.Document) error {
		idx := doc.IndexOf(id)
		if idx < 0 {
			return apperr.NotFound("post")
		}
		doc.Posts = append(doc.Posts[:idx], doc.Posts[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("post deleted", zap.String("postID", id))
	return nil
}

// === Vote Methods ===

// Upvote увеличивает счётчик на единицу и возвращает новое значение.
// Повторные голоса одного и того же пользователя не отсекаются.
func (r *Repository) Upvote(ctx context.Context, id string) (int, error) {
	return r.vote(ctx, id, func(p *domain.Post) int {
		p.Upvotes++
		return p.Upvotes
	})
}

func (r *Repository) Downvote(ctx context.Context, id string) (int, error) {
	return r.vote(ctx, id, func(p *domain.Post) int {
		p.Downvotes++
		return p.Downvotes
	})
}

func (r *Repository) vote(ctx context.Context, id string, apply func(*domain.Post) int) (int, error) {
	var count int
	err := r.mutate(ctx, func(doc *domain.Document) error {
		idx := doc.IndexOf(id)
		if idx < 0 {
			return apperr.NotFound("post")
		}
		count = apply(&doc.Posts[idx])
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// === Comment Methods ===

func (r *Repository) AddComment(ctx context.Context, postID string, input AddCommentInput) (domain.Comment, error) {
	if err := validateStruct(input); err != nil {
		return domain.Comment{}, err
	}

	comment := domain.Comment{
		ID:        r.newID(),
		PostID:    postID,
		UserID:    input.UserID,
		Username:  input.Username,
		Content:   input.Content,
		CreatedAt: domain.NewTimestamp(r.now()),
	}
	if input.ParentID != nil && *input.ParentID != "" {
		parentID := *input.ParentID
		comment.ParentID = &parentID
	}
	comment.Normalize()

	err := r.mutate(ctx, func(doc *domain.Document) error {
		idx := doc.IndexOf(postID)
		if idx < 0 {
			return apperr.NotFound("post")
		}
		doc.Posts[idx].Comments = append(doc.Posts[idx].Comments, comment)
		return nil
	})
	if err != nil {
		return domain.Comment{}, err
	}

	r.logger.Info("comment added", zap.String("postID", postID), zap.String("commentID", comment.ID))
	return comment, nil
}

// CommentThread собирает комментарии поста в дерево по parentId.
// Это только представление: в документе replies остаются пустыми.
func (r *Repository) CommentThread(ctx context.Context, postID string) ([]domain.Comment, error) {
	post, err := r.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return buildThread(post.Comments), nil
}

// === Interpretation Methods ===

// GenerateInterpretations заменяет трактовки поста заготовками по его линзам.
func (r *Repository) GenerateInterpretations(ctx context.Context, postID string) ([]domain.Interpretation, error) {
	var result []domain.Interpretation
	err := r.mutate(ctx, func(doc *domain.Document) error {
		idx := doc.IndexOf(postID)
		if idx < 0 {
			return apperr.NotFound("post")
		}
		result = interpret.For(doc.Posts[idx].Lenses, r.now())
		doc.Posts[idx].Interpretations = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Seed добавляет готовые посты в начало ленты, пропуская уже существующие id.
func (r *Repository) Seed(ctx context.Context, posts []domain.Post) (int, error) {
	added := 0
	err := r.mutate(ctx, func(doc *domain.Document) error {
		fresh := make([]domain.Post, 0, len(posts))
		for _, p := range posts {
			if doc.IndexOf(p.ID) >= 0 {
				continue
			}
			p.Normalize()
			fresh = append(fresh, p)
		}
		added = len(fresh)
		doc.Posts = append(fresh, doc.Posts...)
		return nil
	})
	return added, err
}

// mutate выполняет load -> fn -> save под мьютексом. Если fn вернула ошибку, документ не пишется.
func (r *Repository) mutate(ctx context.Context, fn func(doc *domain.Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadForUpdate(ctx)
	if err != nil {
		r.logger.Error("failed to load document for update", zap.Error(err))
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := r.store.Save(ctx, doc); err != nil {
		r.logger.Error("failed to save document", zap.Error(err))
		if apperr.IsStorage(err) {
			return err
		}
		return apperr.Storage("save document", err)
	}
	return nil
}

// loadForUpdate читает документ перед изменением. Хранилища с временными сбоями чтения
// сообщают о них ошибкой, и тогда изменение отменяется.
func (r *Repository) loadForUpdate(ctx context.Context) (*domain.Document, error) {
	loader, ok := r.store.(storage.UpdateLoader)
	if !ok {
		return r.store.Load(ctx), nil
	}
	doc, err := loader.LoadForUpdate(ctx)
	if err != nil {
		if apperr.IsStorage(err) {
			return nil, err
		}
		return nil, apperr.Storage("load document", err)
	}
	return doc, nil
}
