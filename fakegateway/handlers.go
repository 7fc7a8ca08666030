package fakegateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"snapfeed_client/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// authUser resolves the acting user from the bearer token. The fake store
// treats the token as the user id directly.
func authUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return "", false
	}
	return token, true
}

func (s *Server) handleCreateReaction(w http.ResponseWriter, r *http.Request) {
	if !s.begin("createReaction", w) {
		return
	}
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	var request struct {
		OnModel      string `json:"onModel"`
		LikableID    string `json:"likableId"`
		ReactionType string `json:"reactionType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !models.IsValidTargetKind(request.OnModel) || !models.IsValidReactionType(request.ReactionType) {
		respondError(w, http.StatusUnprocessableEntity, "invalid reaction")
		return
	}

	edge := models.ReactionEdge{
		ID:         uuid.New().String(),
		TargetID:   request.LikableID,
		TargetKind: request.OnModel,
		UserID:     userID,
		Type:       request.ReactionType,
	}

	s.mu.Lock()
	// At most one edge per (user, target).
	for id, existing := range s.reactions {
		if existing.UserID == userID && existing.TargetKey() == edge.TargetKey() {
			delete(s.reactions, id)
		}
	}
	s.reactions[edge.ID] = edge
	s.mu.Unlock()

	log.Info().Str("edge", edge.ID).Str("user", userID).Msg("✅ Reaction stored")
	respondJSON(w, http.StatusOK, edge)
}

func (s *Server) handleUpdateReaction(w http.ResponseWriter, r *http.Request) {
	if !s.begin("updateReaction", w) {
		return
	}
	if _, ok := authUser(w, r); !ok {
		return
	}

	edgeID := mux.Vars(r)["likeId"]
	var request struct {
		ReactionType string `json:"reactionType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !models.IsValidReactionType(request.ReactionType) {
		respondError(w, http.StatusUnprocessableEntity, "invalid reaction type")
		return
	}

	s.mu.Lock()
	edge, exists := s.reactions[edgeID]
	if exists {
		edge.Type = request.ReactionType
		s.reactions[edgeID] = edge
	}
	s.mu.Unlock()

	if !exists {
		respondError(w, http.StatusNotFound, "reaction not found")
		return
	}
	respondJSON(w, http.StatusOK, edge)
}

func (s *Server) handleDeleteReaction(w http.ResponseWriter, r *http.Request) {
	if !s.begin("deleteReaction", w) {
		return
	}
	if _, ok := authUser(w, r); !ok {
		return
	}

	edgeID := mux.Vars(r)["likeId"]

	s.mu.Lock()
	_, exists := s.reactions[edgeID]
	delete(s.reactions, edgeID)
	s.mu.Unlock()

	if !exists {
		respondError(w, http.StatusNotFound, "reaction not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "reaction removed"})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	if !s.begin("follow", w) {
		return
	}
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	targetID := mux.Vars(r)["userId"]
	if targetID == userID {
		respondError(w, http.StatusUnprocessableEntity, "cannot follow yourself")
		return
	}

	s.mu.Lock()
	if s.followers[targetID] == nil {
		s.followers[targetID] = make(map[string]bool)
	}
	s.followers[targetID][userID] = true
	s.mu.Unlock()

	log.Info().Str("follower", userID).Str("followee", targetID).Msg("✅ Follow stored")
	respondJSON(w, http.StatusOK, map[string]string{"message": "followed"})
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	if !s.begin("unfollow", w) {
		return
	}
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	targetID := mux.Vars(r)["userId"]

	s.mu.Lock()
	delete(s.followers[targetID], userID)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]string{"message": "unfollowed"})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	if !s.begin("listComments", w) {
		return
	}

	targetID := mux.Vars(r)["targetId"]
	targetKind := models.TargetKindPost
	if strings.HasPrefix(r.URL.Path, "/api/v1/comments/") {
		targetKind = models.TargetKindComment
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 30
	}

	s.mu.Lock()
	all := s.comments[targetKind+"#"+targetID]
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := append([]models.Comment(nil), all[offset:end]...)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"comments":       page,
		"totalDocuments": total,
	})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	if !s.begin("createComment", w) {
		return
	}
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	var request struct {
		OnModel       string `json:"onModel"`
		CommentableID string `json:"commentableId"`
		Content       string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(request.Content) == "" {
		respondError(w, http.StatusUnprocessableEntity, "content is required")
		return
	}
	if !models.IsValidTargetKind(request.OnModel) {
		respondError(w, http.StatusUnprocessableEntity, "invalid target kind")
		return
	}

	comment := models.Comment{
		ID:         uuid.New().String(),
		Content:    request.Content,
		AuthorID:   userID,
		TargetID:   request.CommentableID,
		TargetKind: request.OnModel,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if request.OnModel == models.TargetKindComment {
		// A reply: its parent must be a stored top-level comment.
		for key, list := range s.comments {
			for i := range list {
				if list[i].ID == request.CommentableID {
					list[i].Replies = append([]models.Comment{comment}, list[i].Replies...)
					s.comments[key] = list
					respondJSON(w, http.StatusOK, map[string]interface{}{"newComment": comment})
					return
				}
			}
		}
		respondError(w, http.StatusUnprocessableEntity, "parent comment not found or not top-level")
		return
	}

	key := request.OnModel + "#" + request.CommentableID
	s.comments[key] = append([]models.Comment{comment}, s.comments[key]...)
	respondJSON(w, http.StatusOK, map[string]interface{}{"newComment": comment})
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	if !s.begin("editComment", w) {
		return
	}
	if _, ok := authUser(w, r); !ok {
		return
	}

	commentID := mux.Vars(r)["commentId"]
	var request struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(request.Content) == "" {
		respondError(w, http.StatusUnprocessableEntity, "content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, list := range s.comments {
		for i := range list {
			if list[i].ID == commentID {
				list[i].Content = request.Content
				list[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
				s.comments[key] = list
				respondJSON(w, http.StatusOK, list[i])
				return
			}
			for j := range list[i].Replies {
				if list[i].Replies[j].ID == commentID {
					list[i].Replies[j].Content = request.Content
					list[i].Replies[j].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
					s.comments[key] = list
					respondJSON(w, http.StatusOK, list[i].Replies[j])
					return
				}
			}
		}
	}
	respondError(w, http.StatusNotFound, "comment not found")
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if !s.begin("deleteComment", w) {
		return
	}
	if _, ok := authUser(w, r); !ok {
		return
	}

	commentID := mux.Vars(r)["commentId"]

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, list := range s.comments {
		for i := range list {
			if list[i].ID == commentID {
				s.comments[key] = append(list[:i:i], list[i+1:]...)
				respondJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
				return
			}
			for j := range list[i].Replies {
				if list[i].Replies[j].ID == commentID {
					list[i].Replies = append(list[i].Replies[:j:j], list[i].Replies[j+1:]...)
					s.comments[key] = list
					respondJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
					return
				}
			}
		}
	}
	respondError(w, http.StatusNotFound, "comment not found")
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if !s.begin("fetchActivity", w) {
		return
	}

	userID := mux.Vars(r)["userId"]

	s.mu.Lock()
	events := append([]models.ActivityEvent(nil), s.activity[userID]...)
	s.mu.Unlock()

	if events == nil {
		events = []models.ActivityEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}
