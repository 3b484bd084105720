package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/modora-posts-service/internal/apperr"
	"github.com/UkralStul/modora-posts-service/internal/domain"
)

type contextKey string

const key = contextKey("dataloaders")

// PostSource - то, откуда лоадер берёт посты пачкой.
type PostSource interface {
	GetPosts(ctx context.Context, ids []string) map[string]domain.Post
}

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	PostByID *dataloader.Loader
}

// NewLoaders создает лоадеры, общие для всех запросов.
// Кэша нет: документ может измениться между запросами. Одновременные чтения постов
// в пределах окна wait обслуживаются одним чтением документа.
func NewLoaders(source PostSource, wait time.Duration) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		postIDs := keys.Keys()

		// один вызов хранилища на всю пачку. ctx принадлежит первому запросу пачки,
		// поэтому его отмена не должна срывать чтение для остальных.
		posts := source.GetPosts(context.WithoutCancel(ctx), postIDs)

		// результат в том же порядке, что и ключи
		results := make([]*dataloader.Result, len(keys))
		for i, postID := range postIDs {
			if post, ok := posts[postID]; ok {
				results[i] = &dataloader.Result{Data: post}
			} else {
				results[i] = &dataloader.Result{Error: apperr.NotFound("post")}
			}
		}
		return results
	}

	return &Loaders{
		PostByID: dataloader.NewBatchedLoader(batchFn,
			dataloader.WithWait(wait),
			dataloader.WithCache(&dataloader.NoCache{}),
		),
	}
}

// LoadPost читает пост через лоадер.
func (l *Loaders) LoadPost(ctx context.Context, id string) (domain.Post, error) {
	data, err := l.PostByID.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return domain.Post{}, err
	}
	return data.(domain.Post), nil
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(loaders *Loaders) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, loaders)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}
