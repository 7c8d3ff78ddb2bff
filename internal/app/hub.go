package app

import (
	"sync"
	"time"

	"quizboard-service/internal/domain"
)

// Hub fans leaderboard snapshots out to in-process watchers of a quiz.
type Hub struct {
	now         func() time.Time
	mu          sync.Mutex
	subscribers map[int64]map[chan domain.Leaderboard]struct{}
}

func NewHub(now func() time.Time) *Hub {
	if now == nil {
		now = time.Now
	}
	return &Hub{
		now:         now,
		subscribers: make(map[int64]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a watcher and queues the initial snapshot.
func (h *Hub) Subscribe(quizID int64, initial []domain.RankedEntry) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		h.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	ch <- h.snapshot(quizID, initial)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, quizID)
		}
	}
	return ch, cancel
}

// HasSubscribers reports whether anyone watches the quiz.
func (h *Hub) HasSubscribers(quizID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[quizID]) > 0
}

// Publish sends a snapshot to every watcher of the quiz without blocking.
func (h *Hub) Publish(quizID int64, entries []domain.RankedEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lb := h.snapshot(quizID, entries)
	for ch := range h.subscribers[quizID] {
		select {
		case ch <- lb:
		default:
			// Slow watcher: drop its oldest snapshot to make room.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (h *Hub) snapshot(quizID int64, entries []domain.RankedEntry) domain.Leaderboard {
	copied := append([]domain.RankedEntry(nil), entries...)
	return domain.Leaderboard{
		QuizID:    quizID,
		Entries:   copied,
		UpdatedAt: h.now(),
	}
}
