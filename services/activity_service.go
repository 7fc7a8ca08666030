package services

import (
	"context"
	"encoding/json"
	"sync"

	"snapfeed_client/models"
	"snapfeed_client/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PushChannel is the asynchronous side of the Remote Store Gateway: a
// stream of raw JSON activity frames. The channel closes when the
// connection is torn down for good.
type PushChannel interface {
	Events() <-chan []byte
}

// ActivityService is the event merge layer. It owns its own newest-first
// activity projection, seeded by one historical fetch and then folded
// from the push channel. It never writes into reaction, follow or comment
// state; those projections converge on their next refetch.
type ActivityService struct {
	API *APIService

	// OnEvent, when set before Start, is invoked for every newly merged
	// push event (after the list is updated).
	OnEvent func(models.ActivityEvent)

	mu      sync.Mutex
	events  []models.ActivityEvent
	seen    map[string]bool
	unread  bool
	running bool
	closed  bool
}

// ActivitySubscription tears down one Start call.
type ActivitySubscription struct {
	stop chan struct{}
	once sync.Once
}

// NewActivityService creates an ActivityService with an empty list.
func NewActivityService(api *APIService) *ActivityService {
	return &ActivityService{API: api, seen: make(map[string]bool)}
}

// Start seeds the activity list from one historical fetch and then folds
// push frames for the lifetime of the subscription. A failed seed fetch
// is tolerated: the list simply starts empty and fills from pushes.
func (s *ActivityService) Start(ctx context.Context, userID string, channel PushChannel) (*ActivitySubscription, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	s.running = true
	s.closed = false
	s.mu.Unlock()

	history, err := s.API.FetchRecentActivity(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("⚠️ Activity seed fetch failed, starting unseeded")
	} else {
		s.mu.Lock()
		// Server returns newest first; keep that order.
		for _, ev := range history {
			if ev.ID == "" {
				ev.ID = "local-" + uuid.New().String()
			}
			if s.seen[ev.ID] {
				continue
			}
			s.seen[ev.ID] = true
			s.events = append(s.events, ev)
		}
		s.mu.Unlock()
		log.Info().Str("user", userID).Int("count", len(history)).Msg("✅ Activity list seeded")
	}

	sub := &ActivitySubscription{stop: make(chan struct{})}
	go s.run(channel, sub)
	return sub, nil
}

func (s *ActivityService) run(channel PushChannel, sub *ActivitySubscription) {
	for {
		select {
		case frame, ok := <-channel.Events():
			if !ok {
				return
			}
			s.ingest(frame)
		case <-sub.stop:
			return
		}
	}
}

// Stop tears down a subscription; late frames are discarded so a
// destroyed list is never mutated.
func (s *ActivityService) Stop(sub *ActivitySubscription) {
	sub.once.Do(func() { close(sub.stop) })
	s.mu.Lock()
	s.closed = true
	s.running = false
	s.mu.Unlock()
	log.Info().Msg("✅ Activity subscription stopped")
}

// ingest maps one raw push frame to the closed ActivityEvent shape and
// prepends it. Untyped payloads never travel past this boundary.
func (s *ActivityService) ingest(frame []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(frame, &payload); err != nil {
		log.Warn().Err(err).Msg("⚠️ Dropping malformed push frame")
		return
	}

	event := mapActivityPayload(payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.seen[event.ID] {
		// Redelivery after a reconnect; drop silently.
		return
	}
	s.seen[event.ID] = true
	s.events = append([]models.ActivityEvent{event}, s.events...)
	s.unread = true

	if s.OnEvent != nil {
		go s.OnEvent(event)
	}
}

// mapActivityPayload turns a duck-typed push payload into an
// ActivityEvent. Unknown kinds map to "other"; a missing id gets a
// locally generated one in a namespace no server id can collide with.
func mapActivityPayload(payload map[string]interface{}) models.ActivityEvent {
	kind := utils.ExtractString(payload, "type")
	switch kind {
	case models.ActivityKindLike, models.ActivityKindComment, models.ActivityKindFollow:
	default:
		kind = models.ActivityKindOther
	}

	id := utils.ExtractString(payload, "id")
	if id == "" {
		id = "local-" + uuid.New().String()
	}

	return models.ActivityEvent{
		ID:         id,
		Kind:       kind,
		ActorID:    utils.ExtractString(payload, "userId"),
		SubjectID:  utils.ExtractString(payload, "targetId"),
		OccurredAt: utils.ExtractTimestamp(payload, "createdAt"),
	}
}

// Events returns a copy of the activity list, newest first.
func (s *ActivityService) Events() []models.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityEvent(nil), s.events...)
}

// HasUnread reports whether activity arrived since the last MarkRead.
func (s *ActivityService) HasUnread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead clears the unread flag (the user opened the activity page).
func (s *ActivityService) MarkRead() {
	s.mu.Lock()
	s.unread = false
	s.mu.Unlock()
}
