package memory

import (
	"context"
	"sort"

	"quizboard-service/internal/domain"
)

// RecordAttempt applies the attempt to the identity's entry. The whole
// read-modify-write runs under the store lock, which serialises concurrent
// completions for the same identity.
func (s *Store) RecordAttempt(_ context.Context, attempt domain.Attempt) (domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	key := attempt.Identity().Key()
	for id, entry := range s.entries {
		if entry.QuizID != attempt.QuizID || entry.Identity().Key() != key {
			continue
		}
		next := entry.Apply(attempt, now)
		next.Version = entry.Version + 1
		s.entries[id] = next
		next.Username = s.usernameLocked(next.UserID)
		return next, nil
	}

	entry := domain.NewLeaderboardEntry(attempt, now)
	entry.ID = s.nextIDLocked()
	entry.Version = 1
	entry.Username = ""
	s.entries[entry.ID] = entry
	entry.Username = s.usernameLocked(entry.UserID)
	return entry, nil
}

func (s *Store) QuizEntries(_ context.Context, quizID int64, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.LeaderboardEntry, 0)
	for _, e := range s.entries {
		if e.QuizID != quizID {
			continue
		}
		e.Username = s.usernameLocked(e.UserID)
		entries = append(entries, e)
	}
	domain.SortQuizEntries(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type standing struct {
	domain.GlobalStanding
	firstID       int64
	percentageSum float64
}

func (s *Store) GlobalStandings(_ context.Context, limit int) ([]domain.GlobalStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byIdentity := make(map[string]*standing)
	for _, e := range s.entries {
		key := e.Identity().Key()
		st, ok := byIdentity[key]
		if !ok {
			e.Username = s.usernameLocked(e.UserID)
			st = &standing{firstID: e.ID}
			st.DisplayName = e.DisplayName()
			byIdentity[key] = st
		}
		if e.ID < st.firstID {
			st.firstID = e.ID
		}
		st.TotalScore += e.BestScore
		st.QuizzesCompleted++
		st.percentageSum += e.BestPercentage
	}

	all := make([]*standing, 0, len(byIdentity))
	for _, st := range byIdentity {
		st.AveragePercentage = st.percentageSum / float64(st.QuizzesCompleted)
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.AveragePercentage != b.AveragePercentage {
			return a.AveragePercentage > b.AveragePercentage
		}
		return a.firstID < b.firstID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	standings := make([]domain.GlobalStanding, 0, len(all))
	for _, st := range all {
		standings = append(standings, st.GlobalStanding)
	}
	return standings, nil
}

func (s *Store) ReplaceQuizEntries(_ context.Context, quizID int64, entries []domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.QuizID == quizID {
			delete(s.entries, id)
		}
	}
	for _, e := range entries {
		e.ID = s.nextIDLocked()
		e.QuizID = quizID
		e.Version = 1
		e.Username = ""
		s.entries[e.ID] = e
	}
	return nil
}
