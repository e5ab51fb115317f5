package collab

import (
	"time"

	"LiveCanvas/internal/state"
)

const (
	ReactionInterval = 100 * time.Millisecond
	PruneInterval    = time.Second
	ReactionTTL      = 3 * time.Second
)

// ReactionStream holds received and emitted reactions until they age out.
type ReactionStream struct {
	ttl   time.Duration
	items []state.ReactionEvent
}

func NewReactionStream(ttl time.Duration) *ReactionStream {
	if ttl <= 0 {
		ttl = ReactionTTL
	}
	return &ReactionStream{ttl: ttl}
}

func (s *ReactionStream) Add(ev state.ReactionEvent) {
	s.items = append(s.items, ev)
}

func (s *ReactionStream) Len() int { return len(s.items) }

func (s *ReactionStream) expired(ev state.ReactionEvent, now time.Time) bool {
	return now.UnixMilli()-ev.Timestamp > s.ttl.Milliseconds()
}

// Prune drops reactions older than the TTL and returns how many were dropped.
func (s *ReactionStream) Prune(now time.Time) int {
	kept := s.items[:0]
	for _, ev := range s.items {
		if !s.expired(ev, now) {
			kept = append(kept, ev)
		}
	}
	dropped := len(s.items) - len(kept)
	clear(s.items[len(kept):])
	s.items = kept
	return dropped
}

// Visible returns the reactions still within the TTL at now.
func (s *ReactionStream) Visible(now time.Time) []state.ReactionEvent {
	out := make([]state.ReactionEvent, 0, len(s.items))
	for _, ev := range s.items {
		if !s.expired(ev, now) {
			out = append(out, ev)
		}
	}
	return out
}
