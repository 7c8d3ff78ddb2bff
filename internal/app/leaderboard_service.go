package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"quizboard-service/internal/domain"
)

const (
	DefaultQuizLeaderboardLimit   = 50
	DefaultGlobalLeaderboardLimit = 100
)

// LeaderboardService maintains best results and serves rankings.
type LeaderboardService struct {
	entries     LeaderboardRepository
	attempts    AttemptRepository
	hub         *Hub
	quizLimit   int
	globalLimit int
	now         func() time.Time

	// feeds serialises snapshot reads and publishes per quiz, so watchers
	// see snapshots in read order and never miss one between subscribe and
	// the first publish.
	feedsMu sync.Mutex
	feeds   map[int64]*sync.Mutex
}

// LeaderboardOptions configures ranking sizes; zero values use the defaults.
type LeaderboardOptions struct {
	QuizLimit   int
	GlobalLimit int
	Now         func() time.Time
}

func NewLeaderboardService(entries LeaderboardRepository, attempts AttemptRepository, opts LeaderboardOptions) *LeaderboardService {
	if opts.QuizLimit <= 0 {
		opts.QuizLimit = DefaultQuizLeaderboardLimit
	}
	if opts.GlobalLimit <= 0 {
		opts.GlobalLimit = DefaultGlobalLeaderboardLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LeaderboardService{
		entries:     entries,
		attempts:    attempts,
		hub:         NewHub(opts.Now),
		quizLimit:   opts.QuizLimit,
		globalLimit: opts.GlobalLimit,
		now:         opts.Now,
		feeds:       make(map[int64]*sync.Mutex),
	}
}

// RecordAttempt folds a completed attempt into the leaderboard, publishes the
// new quiz snapshot and returns the identity's rank.
func (s *LeaderboardService) RecordAttempt(ctx context.Context, attempt domain.Attempt) (int, error) {
	if !attempt.Completed {
		return 0, nil
	}
	if _, err := s.entries.RecordAttempt(ctx, attempt); err != nil {
		return 0, fmt.Errorf("record leaderboard entry: %w", err)
	}

	ranked, err := s.publish(ctx, attempt.QuizID)
	if err != nil {
		return 0, err
	}
	return rankOf(ranked, attempt.Identity()), nil
}

func (s *LeaderboardService) feedLock(quizID int64) *sync.Mutex {
	s.feedsMu.Lock()
	defer s.feedsMu.Unlock()
	mu, ok := s.feeds[quizID]
	if !ok {
		mu = &sync.Mutex{}
		s.feeds[quizID] = mu
	}
	return mu
}

// publish reads the full ranking of a quiz and sends its top entries to
// watchers. Reads and publishes of one quiz happen in a single order.
func (s *LeaderboardService) publish(ctx context.Context, quizID int64) ([]domain.RankedEntry, error) {
	mu := s.feedLock(quizID)
	mu.Lock()
	defer mu.Unlock()

	all, err := s.entries.QuizEntries(ctx, quizID, 0)
	if err != nil {
		return nil, err
	}
	ranked := domain.RankEntries(all)
	if s.hub.HasSubscribers(quizID) {
		s.hub.Publish(quizID, topN(ranked, s.quizLimit))
	}
	return ranked, nil
}

// QuizLeaderboard returns the top entries of a quiz with ranks.
func (s *LeaderboardService) QuizLeaderboard(ctx context.Context, quizID int64) (domain.Leaderboard, error) {
	entries, err := s.entries.QuizEntries(ctx, quizID, s.quizLimit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		QuizID:    quizID,
		Entries:   domain.RankEntries(entries),
		UpdatedAt: s.now(),
	}, nil
}

// RankOf returns the 1-based position of identity on the quiz leaderboard, or 0.
func (s *LeaderboardService) RankOf(ctx context.Context, quizID int64, identity domain.Identity) (int, error) {
	entries, err := s.entries.QuizEntries(ctx, quizID, 0)
	if err != nil {
		return 0, err
	}
	return rankOf(domain.RankEntries(entries), identity), nil
}

// GlobalLeaderboard ranks identities across quizzes by total best score.
func (s *LeaderboardService) GlobalLeaderboard(ctx context.Context) ([]domain.GlobalStanding, error) {
	standings, err := s.entries.GlobalStandings(ctx, s.globalLimit)
	if err != nil {
		return nil, err
	}
	return domain.RankStandings(standings), nil
}

// Rebuild recomputes every entry of a quiz from its completed attempts in completion order.
func (s *LeaderboardService) Rebuild(ctx context.Context, quizID int64) (int, error) {
	qid := quizID
	attempts, err := s.attempts.ListAttempts(ctx, domain.AttemptFilter{QuizID: &qid})
	if err != nil {
		return 0, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return completedAt(attempts[i]).Before(completedAt(attempts[j]))
	})

	byIdentity := make(map[string]domain.LeaderboardEntry)
	order := make([]string, 0)
	for _, attempt := range attempts {
		key := attempt.Identity().Key()
		at := completedAt(attempt)
		entry, ok := byIdentity[key]
		if !ok {
			byIdentity[key] = domain.NewLeaderboardEntry(attempt, at)
			order = append(order, key)
			continue
		}
		byIdentity[key] = entry.Apply(attempt, at)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, byIdentity[key])
	}
	if err := s.entries.ReplaceQuizEntries(ctx, quizID, entries); err != nil {
		return 0, err
	}
	if _, err := s.publish(ctx, quizID); err != nil {
		return 0, err
	}
	log.Printf("rebuilt leaderboard for quiz %d from %d attempts (%d entries)", quizID, len(attempts), len(entries))
	return len(entries), nil
}

// Subscribe returns a channel of leaderboard snapshots for a quiz, starting
// with the current one. The caller must invoke the returned cancel function.
func (s *LeaderboardService) Subscribe(ctx context.Context, quizID int64) (<-chan domain.Leaderboard, func(), error) {
	mu := s.feedLock(quizID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.QuizLeaderboard(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(quizID, current.Entries)
	return ch, cancel, nil
}

func rankOf(ranked []domain.RankedEntry, identity domain.Identity) int {
	key := identity.Key()
	for _, entry := range ranked {
		if entry.Identity().Key() == key {
			return entry.Rank
		}
	}
	return 0
}

func topN(ranked []domain.RankedEntry, n int) []domain.RankedEntry {
	if n > 0 && len(ranked) > n {
		return ranked[:n]
	}
	return ranked
}

func completedAt(a domain.Attempt) time.Time {
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return a.StartedAt
}
