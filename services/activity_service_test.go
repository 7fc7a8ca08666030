package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"snapfeed_client/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChannel is an in-process PushChannel for driving the merge layer
// without a websocket.
type stubChannel struct {
	ch chan []byte
}

func newStubChannel() *stubChannel {
	return &stubChannel{ch: make(chan []byte, 16)}
}

func (s *stubChannel) Events() <-chan []byte { return s.ch }

func (s *stubChannel) push(t *testing.T, payload map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	s.ch <- data
}

func TestActivitySeedsFromHistory(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	gw.SeedActivity("u1", []models.ActivityEvent{
		{ID: "e2", Kind: models.ActivityKindComment, ActorID: "u3"},
		{ID: "e1", Kind: models.ActivityKindLike, ActorID: "u2"},
	})

	svc := NewActivityService(api)
	sub, err := svc.Start(context.Background(), "u1", newStubChannel())
	require.NoError(t, err)
	defer svc.Stop(sub)

	events := svc.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID, "server order (newest first) is kept")
	assert.Equal(t, "e1", events[1].ID)
}

func TestActivitySeedFailureTolerated(t *testing.T) {
	gw, api := newTestGateway(t, "u1")
	gw.FailNext("fetchActivity", 1)

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err, "a failed seed fetch must not fail Start")
	defer svc.Stop(sub)

	assert.Empty(t, svc.Events())

	// The list still fills from pushes.
	ch.push(t, map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})
	require.Eventually(t, func() bool {
		return len(svc.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActivityPrependsNewestFirst(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)
	defer svc.Stop(sub)

	ch.push(t, map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})
	ch.push(t, map[string]interface{}{"id": "e2", "type": "follow", "userId": "u3"})

	require.Eventually(t, func() bool {
		return len(svc.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	events := svc.Events()
	assert.Equal(t, "e2", events[0].ID, "index 0 is the latest event")
	assert.Equal(t, "e1", events[1].ID)
	assert.True(t, svc.HasUnread())

	svc.MarkRead()
	assert.False(t, svc.HasUnread())
}

func TestActivityDropsDuplicateIDs(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)
	defer svc.Stop(sub)

	ch.push(t, map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})
	ch.push(t, map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})
	ch.push(t, map[string]interface{}{"id": "e2", "type": "comment", "userId": "u2"})

	require.Eventually(t, func() bool {
		return len(svc.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Give a late duplicate a chance to land, then re-check.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, svc.Events(), 2)
}

func TestActivityAssignsNamespacedLocalIDs(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)
	defer svc.Stop(sub)

	ch.push(t, map[string]interface{}{"type": "like", "userId": "u2"})
	ch.push(t, map[string]interface{}{"type": "like", "userId": "u3"})

	require.Eventually(t, func() bool {
		return len(svc.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	events := svc.Events()
	assert.True(t, strings.HasPrefix(events[0].ID, "local-"))
	assert.True(t, strings.HasPrefix(events[1].ID, "local-"))
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestActivityMapsUnknownKindsToOther(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)
	defer svc.Stop(sub)

	ch.push(t, map[string]interface{}{"id": "e1", "type": "poke", "userId": "u2", "createdAt": float64(1700000000)})

	require.Eventually(t, func() bool {
		return len(svc.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ev := svc.Events()[0]
	assert.Equal(t, models.ActivityKindOther, ev.Kind)
	assert.Equal(t, "u2", ev.ActorID)
	assert.NotEmpty(t, ev.OccurredAt)
}

func TestActivityDropsMalformedFrames(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)
	defer svc.Stop(sub)

	ch.ch <- []byte("{not json")
	ch.push(t, map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})

	require.Eventually(t, func() bool {
		return len(svc.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "e1", svc.Events()[0].ID)
}

func TestActivityStopDiscardsLateFrames(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)

	ch.push(t, map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})
	require.Eventually(t, func() bool {
		return len(svc.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	svc.Stop(sub)

	// Frames after teardown never mutate the destroyed list.
	ch.push(t, map[string]interface{}{"id": "e2", "type": "like", "userId": "u3"})
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, svc.Events(), 1)
}

func TestActivityDoubleStartRejected(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	sub, err := svc.Start(context.Background(), "u1", newStubChannel())
	require.NoError(t, err)
	defer svc.Stop(sub)

	_, err = svc.Start(context.Background(), "u1", newStubChannel())
	assert.ErrorIs(t, err, ErrOperationInFlight)
}

func TestActivityOnEventHook(t *testing.T) {
	_, api := newTestGateway(t, "u1")

	svc := NewActivityService(api)
	got := make(chan models.ActivityEvent, 1)
	svc.OnEvent = func(ev models.ActivityEvent) { got <- ev }

	ch := newStubChannel()
	sub, err := svc.Start(context.Background(), "u1", ch)
	require.NoError(t, err)
	defer svc.Stop(sub)

	ch.push(t, map[string]interface{}{"id": "e1", "type": "follow", "userId": "u2"})

	select {
	case ev := <-got:
		assert.Equal(t, models.ActivityKindFollow, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("OnEvent hook was not invoked")
	}
}
