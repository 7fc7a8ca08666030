package models

// ✅ Target Kinds (what a reaction or comment is attached to)
const (
	TargetKindPost    = "Post"
	TargetKindComment = "Comment"
)

// ✅ Reaction Types (mirrors the reaction picker on the client)
const (
	ReactionTypeLike     = "like"
	ReactionTypeLove     = "love"
	ReactionTypeSupport  = "support"
	ReactionTypeCongrats = "congrats"
	ReactionTypeSmile    = "smile"
)

// ✅ Activity Kinds (closed set; unknown push payloads map to "other")
const (
	ActivityKindLike    = "like"
	ActivityKindComment = "comment"
	ActivityKindFollow  = "follow"
	ActivityKindOther   = "other"
)

// ReactionTypes lists every reaction type a user can pick.
var ReactionTypes = []string{
	ReactionTypeLike,
	ReactionTypeLove,
	ReactionTypeSupport,
	ReactionTypeCongrats,
	ReactionTypeSmile,
}

// IsValidReactionType reports whether t is one of the known reaction types.
func IsValidReactionType(t string) bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// IsValidTargetKind reports whether k names a reactable/commentable entity.
func IsValidTargetKind(k string) bool {
	return k == TargetKindPost || k == TargetKindComment
}
