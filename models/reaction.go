package models

// ReactionEdge is one user's reaction to one target (a post or a comment).
// The backend guarantees at most one edge per (userId, targetId); the client
// relies on that when it swaps its own edge in the aggregate list.
type ReactionEdge struct {
	ID         string `json:"id"`
	TargetID   string `json:"likableId"`
	TargetKind string `json:"onModel"` // Post or Comment
	UserID     string `json:"userId"`
	Type       string `json:"reactionType"`
}

// TargetKey identifies the entity the edge is attached to.
func (e ReactionEdge) TargetKey() string {
	return e.TargetKind + "#" + e.TargetID
}
