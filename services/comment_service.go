package services

import (
	"context"
	"fmt"
	"sync"

	"snapfeed_client/models"

	"github.com/rs/zerolog/log"
)

// CommentThread owns the ordered, paginated comment list for one target.
// Creation, reply and edit are all server-confirmed: nothing is shown the
// backend might still reject. A confirmed top-level comment is prepended
// regardless of the server's own ordering, so the author sees it
// immediately; a later full reload may re-order it.
//
// The pagination cursor is the count of already loaded top-level comments,
// not a server-issued cursor. Replies never move the cursor.
type CommentThread struct {
	API        *APIService
	TargetID   string
	TargetKind string

	mu          sync.Mutex
	items       []models.Comment
	loadedCount int
	totalCount  int
	loading     bool
}

// NewCommentThread creates an empty thread manager for one target.
func NewCommentThread(api *APIService, targetID, targetKind string) *CommentThread {
	return &CommentThread{API: api, TargetID: targetID, TargetKind: targetKind}
}

// Comments returns a copy of the loaded thread, replies included.
func (t *CommentThread) Comments() []models.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Comment, len(t.items))
	for i, c := range t.items {
		out[i] = c
		out[i].Replies = append([]models.Comment(nil), c.Replies...)
	}
	return out
}

// LoadedCount returns how many top-level comments are loaded.
func (t *CommentThread) LoadedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadedCount
}

// TotalCount returns the backend-reported top-level total.
func (t *CommentThread) TotalCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCount
}

// HasMore reports whether another page can be loaded.
func (t *CommentThread) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadedCount < t.totalCount
}

// Page returns the current page view of the thread.
func (t *CommentThread) Page() models.CommentPage {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]models.Comment, len(t.items))
	copy(items, t.items)
	return models.CommentPage{Items: items, LoadedCount: t.loadedCount, TotalCount: t.totalCount}
}

// beginLoad marks the thread as loading. Page loads are serialized: a
// load issued while another is in flight is a no-op.
func (t *CommentThread) beginLoad() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loading {
		return false
	}
	t.loading = true
	return true
}

func (t *CommentThread) endLoad() {
	t.mu.Lock()
	t.loading = false
	t.mu.Unlock()
}

// LoadFirstPage replaces the thread with the first page from the backend.
func (t *CommentThread) LoadFirstPage(ctx context.Context, limit int) error {
	if !t.beginLoad() {
		return nil
	}
	defer t.endLoad()

	comments, total, err := t.API.ListComments(ctx, t.TargetKind, t.TargetID, 0, limit)
	if err != nil {
		log.Error().Err(err).Str("target", t.TargetID).Msg("❌ Failed to load comments")
		return err
	}

	t.mu.Lock()
	t.items = comments
	t.loadedCount = len(comments)
	t.totalCount = total
	t.mu.Unlock()

	log.Info().Str("target", t.TargetID).Int("loaded", len(comments)).Int("total", total).Msg("✅ First comment page loaded")
	return nil
}

// LoadNextPage appends the next page, using loadedCount as the offset.
// A no-op while another load is in flight or when nothing more exists.
func (t *CommentThread) LoadNextPage(ctx context.Context, limit int) error {
	t.mu.Lock()
	if t.loading || t.loadedCount >= t.totalCount {
		t.mu.Unlock()
		return nil
	}
	t.loading = true
	offset := t.loadedCount
	t.mu.Unlock()
	defer t.endLoad()

	comments, total, err := t.API.ListComments(ctx, t.TargetKind, t.TargetID, offset, limit)
	if err != nil {
		log.Error().Err(err).Str("target", t.TargetID).Int("offset", offset).Msg("❌ Failed to load more comments")
		return err
	}

	t.mu.Lock()
	t.items = append(t.items, comments...)
	t.loadedCount += len(comments)
	t.totalCount = total
	t.mu.Unlock()

	log.Info().Str("target", t.TargetID).Int("offset", offset).Int("got", len(comments)).Msg("✅ Next comment page loaded")
	return nil
}

// Create submits a new top-level comment. On confirmation the comment is
// prepended so the author sees it at the top immediately.
func (t *CommentThread) Create(ctx context.Context, content string) (*models.Comment, error) {
	comment, err := t.API.CreateComment(ctx, t.TargetKind, t.TargetID, content)
	if err != nil {
		log.Error().Err(err).Str("target", t.TargetID).Msg("❌ Failed to create comment")
		return nil, err
	}

	t.mu.Lock()
	t.items = append([]models.Comment{*comment}, t.items...)
	t.loadedCount++
	t.totalCount++
	t.mu.Unlock()

	log.Info().Str("target", t.TargetID).Str("comment", comment.ID).Msg("✅ Comment created")
	return comment, nil
}

// Reply submits a reply under a loaded top-level comment and prepends it
// into the parent's replies. One level only: replying to a reply is the
// backend's call to refuse, locating the parent here is a top-level scan.
func (t *CommentThread) Reply(ctx context.Context, parentCommentID, content string) (*models.Comment, error) {
	reply, err := t.API.CreateComment(ctx, models.TargetKindComment, parentCommentID, content)
	if err != nil {
		log.Error().Err(err).Str("parent", parentCommentID).Msg("❌ Failed to reply")
		return nil, err
	}

	t.mu.Lock()
	found := false
	for i := range t.items {
		if t.items[i].ID == parentCommentID {
			t.items[i].Replies = append([]models.Comment{*reply}, t.items[i].Replies...)
			found = true
			break
		}
	}
	t.mu.Unlock()

	if !found {
		// Confirmed server-side but the parent is not loaded locally; the
		// reply will appear on the next page reload.
		log.Warn().Str("parent", parentCommentID).Msg("⚠️ Reply confirmed for a parent not in the loaded page")
	} else {
		log.Info().Str("parent", parentCommentID).Str("reply", reply.ID).Msg("✅ Reply created")
	}
	return reply, nil
}

// Edit replaces a comment's content after the backend confirms. The edit
// target is located by id scan across the top-level list.
func (t *CommentThread) Edit(ctx context.Context, commentID, content string) (*models.Comment, error) {
	updated, err := t.API.EditComment(ctx, commentID, content)
	if err != nil {
		log.Error().Err(err).Str("comment", commentID).Msg("❌ Failed to edit comment")
		return nil, err
	}

	t.mu.Lock()
	for i := range t.items {
		if t.items[i].ID == commentID {
			t.items[i].Content = updated.Content
			t.items[i].UpdatedAt = updated.UpdatedAt
			break
		}
	}
	t.mu.Unlock()

	log.Info().Str("comment", commentID).Msg("✅ Comment edited")
	return updated, nil
}

// Remove deletes a comment and drops the matching top-level entry. When
// the id names a reply, it is removed from its parent's replies instead.
func (t *CommentThread) Remove(ctx context.Context, commentID string) error {
	if err := t.API.DeleteComment(ctx, commentID); err != nil {
		log.Error().Err(err).Str("comment", commentID).Msg("❌ Failed to delete comment")
		return err
	}

	t.mu.Lock()
	kept := t.items[:0]
	removedTopLevel := false
	for _, c := range t.items {
		if c.ID == commentID {
			removedTopLevel = true
			continue
		}
		kept = append(kept, c)
	}
	t.items = kept
	if removedTopLevel {
		t.loadedCount--
		if t.totalCount > 0 {
			t.totalCount--
		}
	} else {
		for i := range t.items {
			replies := t.items[i].Replies[:0]
			for _, r := range t.items[i].Replies {
				if r.ID != commentID {
					replies = append(replies, r)
				}
			}
			t.items[i].Replies = replies
		}
	}
	t.mu.Unlock()

	log.Info().Str("comment", commentID).Msg("✅ Comment deleted")
	return nil
}

// String describes the thread for logs.
func (t *CommentThread) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("thread %s/%s: %d/%d loaded", t.TargetKind, t.TargetID, t.loadedCount, t.totalCount)
}
