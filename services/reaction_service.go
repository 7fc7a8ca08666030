package services

import (
	"context"
	"fmt"
	"sync"

	"snapfeed_client/models"

	"github.com/rs/zerolog/log"
)

// ReactionService owns the current user's reaction to each target plus the
// aggregate reaction list for that target. Policy is confirm-then-merge:
// nothing local changes until the gateway confirms, then the locally
// computed diff (add/replace/remove one edge) is applied instead of
// refetching the whole list.
type ReactionService struct {
	API    *APIService
	UserID string

	mu       sync.Mutex
	targets  map[string]*reactionState
	inFlight map[string]bool
}

type reactionState struct {
	edges []models.ReactionEdge
	mine  *models.ReactionEdge
}

// NewReactionService creates a ReactionService for the given current user.
func NewReactionService(api *APIService, userID string) *ReactionService {
	return &ReactionService{
		API:      api,
		UserID:   userID,
		targets:  make(map[string]*reactionState),
		inFlight: make(map[string]bool),
	}
}

func targetKey(targetKind, targetID string) string {
	return targetKind + "#" + targetID
}

// SeedReactions hydrates the aggregate list for a target from a page load.
// The current user's own edge is located in the list by user id.
func (s *ReactionService) SeedReactions(targetID, targetKind string, edges []models.ReactionEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &reactionState{edges: append([]models.ReactionEdge(nil), edges...)}
	for i := range state.edges {
		if state.edges[i].UserID == s.UserID {
			mine := state.edges[i]
			state.mine = &mine
			break
		}
	}
	s.targets[targetKey(targetKind, targetID)] = state
}

// Reactions returns a copy of the aggregate reaction list for a target.
func (s *ReactionService) Reactions(targetID, targetKind string) []models.ReactionEdge {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.targets[targetKey(targetKind, targetID)]
	if state == nil {
		return nil
	}
	return append([]models.ReactionEdge(nil), state.edges...)
}

// MyReaction returns the current user's edge on a target, or nil.
func (s *ReactionService) MyReaction(targetID, targetKind string) *models.ReactionEdge {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.targets[targetKey(targetKind, targetID)]
	if state == nil || state.mine == nil {
		return nil
	}
	mine := *state.mine
	return &mine
}

// SetReaction applies the user's reaction pick to one target. The request
// is classified into exactly one remote operation from current (normally
// the value of MyReaction): nil → create, different type → update, same
// type → delete (toggle-off). Local state is only touched after the
// gateway confirms; on failure the previously displayed state was never
// changed, so there is nothing to roll back.
//
// Returns the resulting edge, or nil when the reaction was toggled off.
func (s *ReactionService) SetReaction(ctx context.Context, targetID, targetKind, desiredType string, current *models.ReactionEdge) (*models.ReactionEdge, error) {
	if !models.IsValidTargetKind(targetKind) {
		return nil, fmt.Errorf("invalid target kind %q", targetKind)
	}
	if !models.IsValidReactionType(desiredType) {
		return nil, fmt.Errorf("invalid reaction type %q", desiredType)
	}

	key := targetKey(targetKind, targetID)

	s.mu.Lock()
	if s.inFlight[key] {
		s.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	s.inFlight[key] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	switch {
	case current == nil:
		edge, err := s.API.CreateReaction(ctx, targetKind, targetID, desiredType)
		if err != nil {
			log.Error().Err(err).Str("target", key).Msg("❌ Failed to create reaction")
			return nil, err
		}
		s.mergeEdge(key, *edge)
		log.Info().Str("target", key).Str("type", desiredType).Msg("✅ Reaction created")
		return edge, nil

	case current.Type != desiredType:
		edge, err := s.API.UpdateReaction(ctx, current.ID, targetKind, targetID, desiredType)
		if err != nil {
			log.Error().Err(err).Str("target", key).Msg("❌ Failed to update reaction")
			return nil, err
		}
		s.mergeEdge(key, *edge)
		log.Info().Str("target", key).Str("type", desiredType).Msg("✅ Reaction updated")
		return edge, nil

	default:
		if err := s.API.DeleteReaction(ctx, current.ID, targetKind, targetID); err != nil {
			log.Error().Err(err).Str("target", key).Msg("❌ Failed to remove reaction")
			return nil, err
		}
		s.removeEdge(key, current.ID)
		log.Info().Str("target", key).Msg("✅ Reaction removed")
		return nil, nil
	}
}

// mergeEdge swaps the current user's edge into the aggregate list:
// any previous edge of this user is dropped and the confirmed one appended.
func (s *ReactionService) mergeEdge(key string, edge models.ReactionEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.targets[key]
	if state == nil {
		state = &reactionState{}
		s.targets[key] = state
	}

	kept := state.edges[:0]
	for _, e := range state.edges {
		if e.UserID != s.UserID {
			kept = append(kept, e)
		}
	}
	state.edges = append(kept, edge)
	mine := edge
	state.mine = &mine
}

func (s *ReactionService) removeEdge(key, edgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.targets[key]
	if state == nil {
		return
	}

	kept := state.edges[:0]
	for _, e := range state.edges {
		if e.ID != edgeID {
			kept = append(kept, e)
		}
	}
	state.edges = kept
	state.mine = nil
}
