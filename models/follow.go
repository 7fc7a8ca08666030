package models

// FollowEdge is a directed follower relationship, existence-only.
type FollowEdge struct {
	FollowerID string `json:"followerId"`
	FolloweeID string `json:"followeeId"`
}

// PairKey is the in-flight guard key for a follow toggle.
func (e FollowEdge) PairKey() string {
	return e.FollowerID + "->" + e.FolloweeID
}
