package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollowAppliesBothSides(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)

	err := svc.ToggleFollow(context.Background(), "u1", "u2", false)
	require.NoError(t, err)

	assert.True(t, svc.IsFollowing("u1", "u2"))
	assert.Equal(t, []string{"u1"}, svc.Followers("u2"))
	assert.Equal(t, []string{"u2"}, svc.Following("u1"))
	assert.True(t, gw.IsFollowing("u1", "u2"))
}

func TestToggleFollowUnfollow(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)
	ctx := context.Background()

	require.NoError(t, svc.ToggleFollow(ctx, "u1", "u2", false))
	require.NoError(t, svc.ToggleFollow(ctx, "u1", "u2", true))

	assert.False(t, svc.IsFollowing("u1", "u2"))
	assert.Empty(t, svc.Followers("u2"))
	assert.Empty(t, svc.Following("u1"))
	assert.False(t, gw.IsFollowing("u1", "u2"))
}

func TestToggleFollowRollbackIsExact(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)
	ctx := context.Background()

	// u1 follows u2 successfully, then a retried unfollow fails.
	require.NoError(t, svc.ToggleFollow(ctx, "u1", "u2", false))
	gw.FailNext("unfollow", 1)

	err := svc.ToggleFollow(ctx, "u1", "u2", true)
	require.Error(t, err)
	assert.True(t, IsRejected(err))

	// Rollback restored the pre-toggle state exactly on both sides.
	assert.True(t, svc.IsFollowing("u1", "u2"))
	assert.Equal(t, []string{"u1"}, svc.Followers("u2"))
	assert.Equal(t, []string{"u2"}, svc.Following("u1"))
}

func TestToggleFollowFailedFollowRollsBack(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)

	gw.FailNext("follow", 1)

	err := svc.ToggleFollow(context.Background(), "u1", "u2", false)
	require.Error(t, err)

	assert.False(t, svc.IsFollowing("u1", "u2"))
	assert.Empty(t, svc.Followers("u2"))
	assert.Empty(t, svc.Following("u1"))
}

func TestToggleFollowTransportFailureRollsBack(t *testing.T) {
	_, api := newTestGateway(t, "u1")
	api.BaseURL = "http://127.0.0.1:1/api/v1" // nothing listens here
	svc := NewFollowService(api)

	err := svc.ToggleFollow(context.Background(), "u1", "u2", false)
	require.Error(t, err)
	assert.True(t, IsTransportFailure(err))
	assert.False(t, svc.IsFollowing("u1", "u2"))
}

func TestToggleFollowRejectsSelfFollow(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)

	err := svc.ToggleFollow(context.Background(), "u1", "u1", false)
	assert.ErrorIs(t, err, ErrSelfFollow)
	assert.Equal(t, 0, gw.RequestCount("follow"))
}

func TestToggleFollowGuardsSamePair(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)
	ctx := context.Background()

	release := gw.GateRequests("follow")
	defer release()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.ToggleFollow(ctx, "u1", "u2", false)
	}()

	require.Eventually(t, func() bool {
		return gw.RequestCount("follow") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Second toggle on the same pair is rejected while one is pending.
	err := svc.ToggleFollow(ctx, "u1", "u2", true)
	assert.ErrorIs(t, err, ErrOperationInFlight)

	release()
	wg.Wait()

	assert.Equal(t, 1, gw.RequestCount("follow"))
	assert.Equal(t, 0, gw.RequestCount("unfollow"))
}

func TestSeedFollowersAndFollowing(t *testing.T) {
	_, api := newTestGateway(t, "u1")
	svc := NewFollowService(api)

	svc.SeedFollowers("u2", []string{"u1", "u3"})
	svc.SeedFollowing("u1", []string{"u2"})

	assert.True(t, svc.IsFollowing("u1", "u2"))
	assert.True(t, svc.IsFollowing("u3", "u2"))
	assert.False(t, svc.IsFollowing("u2", "u1"))
	assert.Equal(t, []string{"u1", "u3"}, svc.Followers("u2"))
}
