package services

import (
	"context"
	"sort"
	"sync"

	"snapfeed_client/models"

	"github.com/rs/zerolog/log"
)

// FollowService owns the locally projected follow graph around the current
// user: per-user follower sets and following sets. Policy is
// optimistic-apply/rollback: both sides of the relationship flip before
// the request goes out, and a failure re-applies the exact inverse
// mutation locally. Rollback never refetches — a racing push event may
// already have moved the canonical state, and trusting it here would
// clobber the pre-click view.
type FollowService struct {
	API *APIService

	mu        sync.Mutex
	followers map[string]map[string]bool
	following map[string]map[string]bool
	inFlight  map[string]bool
}

// NewFollowService creates an empty FollowService.
func NewFollowService(api *APIService) *FollowService {
	return &FollowService{
		API:       api,
		followers: make(map[string]map[string]bool),
		following: make(map[string]map[string]bool),
		inFlight:  make(map[string]bool),
	}
}

// SeedFollowers hydrates a user's follower set from a profile load.
func (s *FollowService) SeedFollowers(userID string, followerIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(followerIDs))
	for _, id := range followerIDs {
		set[id] = true
	}
	s.followers[userID] = set
}

// SeedFollowing hydrates a user's following set from a profile load.
func (s *FollowService) SeedFollowing(userID string, followeeIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		set[id] = true
	}
	s.following[userID] = set
}

// IsFollowing reports the locally projected state of the edge.
func (s *FollowService) IsFollowing(followerID, followeeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.following[followerID][followeeID] || s.followers[followeeID][followerID]
}

// Followers returns a sorted copy of a user's follower ids.
func (s *FollowService) Followers(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.followers[userID])
}

// Following returns a sorted copy of a user's following ids.
func (s *FollowService) Following(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.following[userID])
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToggleFollow flips the follow edge between followerID (the current user)
// and followeeID. The local state is mutated before the request is issued;
// if the request fails the same two-sided mutation is re-applied in the
// opposite direction before the error is reported, so a caller never
// observes the wrong state on the failure path.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, followeeID string, currentlyFollowing bool) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}

	pairKey := models.FollowEdge{FollowerID: followerID, FolloweeID: followeeID}.PairKey()

	s.mu.Lock()
	if s.inFlight[pairKey] {
		s.mu.Unlock()
		return ErrOperationInFlight
	}
	s.inFlight[pairKey] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, pairKey)
		s.mu.Unlock()
	}()

	willFollow := !currentlyFollowing
	s.applyFollowState(followerID, followeeID, willFollow)

	var err error
	if willFollow {
		err = s.API.Follow(ctx, followeeID)
	} else {
		err = s.API.Unfollow(ctx, followeeID)
	}
	if err != nil {
		// Exact local inverse of the optimistic mutation, never a refetch.
		s.applyFollowState(followerID, followeeID, currentlyFollowing)
		log.Error().Err(err).Str("pair", pairKey).Bool("wanted", willFollow).Msg("❌ Follow toggle failed, rolled back")
		return err
	}

	log.Info().Str("pair", pairKey).Bool("following", willFollow).Msg("✅ Follow toggle applied")
	return nil
}

// applyFollowState updates both sides of the relationship: the followee's
// follower set and the follower's following set.
func (s *FollowService) applyFollowState(followerID, followeeID string, following bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.followers[followeeID] == nil {
		s.followers[followeeID] = make(map[string]bool)
	}
	if s.following[followerID] == nil {
		s.following[followerID] = make(map[string]bool)
	}

	if following {
		s.followers[followeeID][followerID] = true
		s.following[followerID][followeeID] = true
	} else {
		delete(s.followers[followeeID], followerID)
		delete(s.following[followerID], followeeID)
	}
}
