package domain

// AnonymousUsername - имя, которое подставляется вместо username у анонимных постов.
const AnonymousUsername = "Anonymous"

// Post представляет пост в системе.
// Title - указатель: в старых документах встречается "title": null, и он должен переживать перезапись.
type Post struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Username        string           `json:"username"`
	Title           *string          `json:"title"`
	Content         string           `json:"content"`
	Tags            []string         `json:"tags"`
	Lenses          []Lens           `json:"lenses"`
	Interpretations []Interpretation `json:"interpretations"`
	Comments        []Comment        `json:"comments"`
	CreatedAt       Timestamp        `json:"createdAt"`
	Upvotes         int              `json:"upvotes"`
	Downvotes       int              `json:"downvotes"`
	IsAnonymous     bool             `json:"isAnonymous"`
}

// Comment представляет комментарий к посту.
// ParentID только ссылается на родителя: Replies в хранилище всегда пустой.
type Comment struct {
	ID         string     `json:"id"`
	PostID     string     `json:"postId"`
	UserID     string     `json:"userId"`
	Username   string     `json:"username"`
	Content    string     `json:"content"`
	ParentID   *string    `json:"parentId"`
	Replies    []Comment  `json:"replies"`
	Upvotes    int        `json:"upvotes"`
	Downvotes  int        `json:"downvotes"`
	Reactions  []Reaction `json:"reactions"`
	ToneBadges []string   `json:"toneBadges"`
	CreatedAt  Timestamp  `json:"createdAt"`
	IsPinned   bool       `json:"isPinned"`
}

// ReactionType - вид реакции на комментарий.
type ReactionType string

const (
	ReactionInsightful ReactionType = "insightful"
	ReactionSupportive ReactionType = "supportive"
	ReactionThoughtful ReactionType = "thoughtful"
)

// Reaction - реакция пользователя на комментарий.
type Reaction struct {
	ID     string       `json:"id"`
	UserID string       `json:"userId"`
	Type   ReactionType `json:"type"`
	Emoji  string       `json:"emoji"`
}

// Interpretation - трактовка поста через одну из линз.
type Interpretation struct {
	ID        string    `json:"id"`
	Lens      Lens      `json:"lens"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Normalize заменяет nil-коллекции пустыми, чтобы в JSON всегда были [] вместо null.
func (p *Post) Normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Lenses == nil {
		p.Lenses = []Lens{}
	}
	if p.Interpretations == nil {
		p.Interpretations = []Interpretation{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].Normalize()
	}
}

func (c *Comment) Normalize() {
	if c.Replies == nil {
		c.Replies = []Comment{}
	}
	if c.Reactions == nil {
		c.Reactions = []Reaction{}
	}
	if c.ToneBadges == nil {
		c.ToneBadges = []string{}
	}
	for i := range c.Replies {
		c.Replies[i].Normalize()
	}
}
