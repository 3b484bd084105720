package repository

import "github.com/UkralStul/modora-posts-service/internal/domain"

// buildThread раскладывает плоский список комментариев в дерево.
// Корни - комментарии без родителя или с неизвестным родителем; порядок внутри уровня сохраняется.
// Цикл по parentId разрывается: первый его комментарий становится корнем.
func buildThread(comments []domain.Comment) []domain.Comment {
	known := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		known[c.ID] = struct{}{}
	}

	children := make(map[string][]int)
	roots := make([]int, 0, len(comments))
	for i, c := range comments {
		if c.ParentID != nil && *c.ParentID != c.ID {
			if _, ok := known[*c.ParentID]; ok {
				children[*c.ParentID] = append(children[*c.ParentID], i)
				continue
			}
		}
		roots = append(roots, i)
	}

	visited := make([]bool, len(comments))
	var build func(i int) domain.Comment
	build = func(i int) domain.Comment {
		visited[i] = true
		c := comments[i]
		c.Replies = []domain.Comment{}
		for _, j := range children[c.ID] {
			if !visited[j] {
				c.Replies = append(c.Replies, build(j))
			}
		}
		return c
	}

	thread := make([]domain.Comment, 0, len(roots))
	for _, i := range roots {
		thread = append(thread, build(i))
	}
	for i := range comments {
		if !visited[i] {
			thread = append(thread, build(i))
		}
	}
	return thread
}
