package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"snapfeed_client/models"

	"github.com/rs/zerolog/log"
)

// APIService is the client side of the Remote Store Gateway: every REST
// operation the controllers consume goes through here. It classifies
// failures into transport errors (no response) and store rejections
// (server declined); the controllers treat both as "operation failed".
type APIService struct {
	BaseURL   string
	AuthToken string
	Client    *http.Client
}

// NewAPIService creates an APIService against the given base URL
// (including the /api/v1 prefix).
func NewAPIService(baseURL, authToken string) *APIService {
	return &APIService{
		BaseURL:   baseURL,
		AuthToken: authToken,
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type commentListResponse struct {
	Comments       []models.Comment `json:"comments"`
	TotalDocuments int              `json:"totalDocuments"`
}

type commentCreateResponse struct {
	NewComment models.Comment `json:"newComment"`
}

// doRequest performs one JSON request/response round trip.
func (s *APIService) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AuthToken)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("❌ Gateway unreachable")
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Str("message", errBody.Message).Msg("❌ Gateway rejected request")
		return &RejectedError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// requireAuth gates mutating operations on a configured session token.
func (s *APIService) requireAuth() error {
	if s.AuthToken == "" {
		return ErrNotAuthenticated
	}
	return nil
}

// CreateReaction creates a new reaction edge on a target.
func (s *APIService) CreateReaction(ctx context.Context, targetKind, targetID, reactionType string) (*models.ReactionEdge, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var edge models.ReactionEdge
	err := s.doRequest(ctx, http.MethodPost, "/like", map[string]string{
		"onModel":      targetKind,
		"likableId":    targetID,
		"reactionType": reactionType,
	}, &edge)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// UpdateReaction changes the type of an existing reaction edge.
func (s *APIService) UpdateReaction(ctx context.Context, edgeID, targetKind, targetID, reactionType string) (*models.ReactionEdge, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var edge models.ReactionEdge
	err := s.doRequest(ctx, http.MethodPut, "/like/"+url.PathEscape(edgeID), map[string]string{
		"onModel":      targetKind,
		"likableId":    targetID,
		"reactionType": reactionType,
	}, &edge)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeleteReaction removes a reaction edge (toggle-off).
func (s *APIService) DeleteReaction(ctx context.Context, edgeID, targetKind, targetID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodDelete, "/like/"+url.PathEscape(edgeID), map[string]string{
		"onModel":   targetKind,
		"likableId": targetID,
	}, nil)
}

// Follow creates a follow edge from the current user to targetUserID.
func (s *APIService) Follow(ctx context.Context, targetUserID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodPost, "/users/"+url.PathEscape(targetUserID)+"/follow", nil, nil)
}

// Unfollow removes the follow edge to targetUserID.
func (s *APIService) Unfollow(ctx context.Context, targetUserID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodDelete, "/users/"+url.PathEscape(targetUserID)+"/follow", nil, nil)
}

// ListComments fetches one page of top-level comments for a target.
func (s *APIService) ListComments(ctx context.Context, targetKind, targetID string, offset, limit int) ([]models.Comment, int, error) {
	kindPath := "posts"
	if targetKind == models.TargetKindComment {
		kindPath = "comments"
	}
	path := fmt.Sprintf("/%s/%s/comments?offset=%d&limit=%d", kindPath, url.PathEscape(targetID), offset, limit)
	var out commentListResponse
	if err := s.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Comments, out.TotalDocuments, nil
}

// CreateComment submits a new comment (top-level or reply, depending on
// the target kind) and returns the server-confirmed comment.
func (s *APIService) CreateComment(ctx context.Context, targetKind, targetID, content string) (*models.Comment, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var out commentCreateResponse
	err := s.doRequest(ctx, http.MethodPost, "/comments/comment", map[string]string{
		"onModel":       targetKind,
		"commentableId": targetID,
		"content":       content,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.NewComment, nil
}

// EditComment replaces the content of an existing comment.
func (s *APIService) EditComment(ctx context.Context, commentID, content string) (*models.Comment, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	var comment models.Comment
	err := s.doRequest(ctx, http.MethodPut, "/comments/"+url.PathEscape(commentID), map[string]string{
		"content": content,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (s *APIService) DeleteComment(ctx context.Context, commentID string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID), nil, nil)
}

// FetchRecentActivity returns the user's recent activity, newest first.
func (s *APIService) FetchRecentActivity(ctx context.Context, userID string) ([]models.ActivityEvent, error) {
	var events []models.ActivityEvent
	path := "/users/" + url.PathEscape(userID) + "/notifications"
	if err := s.doRequest(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
