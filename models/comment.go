package models

// Comment is a single thread entry. Replies is populated only on top-level
// comments; a reply never carries replies of its own (depth ≤ 1).
type Comment struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	TargetID   string    `json:"commentableId"`
	TargetKind string    `json:"onModel"` // Post or Comment
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt,omitempty"`
	Replies    []Comment `json:"replies,omitempty"`
}

// CommentPage is the client-side view of a paginated thread. LoadedCount
// counts top-level comments only; replies do not move the cursor.
type CommentPage struct {
	Items       []Comment `json:"comments"`
	LoadedCount int       `json:"loadedCount"`
	TotalCount  int       `json:"totalDocuments"`
}

// HasMore reports whether the backend holds more top-level comments than
// the client has loaded.
func (p CommentPage) HasMore() bool {
	return p.LoadedCount < p.TotalCount
}
