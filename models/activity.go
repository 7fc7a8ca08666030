package models

// ActivityEvent is one entry in the activity feed: somebody liked,
// commented on, or followed something of yours. Events arrive either from
// the historical fetch or from the push channel; both are mapped to this
// closed shape at the boundary.
type ActivityEvent struct {
	ID         string `json:"id"`
	Kind       string `json:"type"` // like, comment, follow, other
	ActorID    string `json:"userId"`
	SubjectID  string `json:"targetId,omitempty"`
	OccurredAt string `json:"createdAt,omitempty"`
}
