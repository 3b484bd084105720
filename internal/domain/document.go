package domain

// Document - весь набор данных, который читается и пишется целиком.
type Document struct {
	Posts []Post `json:"posts"`
}

// NewDocument возвращает пустой документ {"posts": []}.
func NewDocument() *Document {
	return &Document{Posts: []Post{}}
}

// Normalize приводит документ к каноническому виду после чтения.
func (d *Document) Normalize() {
	if d.Posts == nil {
		d.Posts = []Post{}
	}
	for i := range d.Posts {
		d.Posts[i].Normalize()
	}
}

// IndexOf возвращает позицию поста с указанным id или -1.
func (d *Document) IndexOf(id string) int {
	for i := range d.Posts {
		if d.Posts[i].ID == id {
			return i
		}
	}
	return -1
}
