package memory

import (
	"context"
	"sort"

	"quizboard-service/internal/domain"
)

func (s *Store) CreateAttempt(_ context.Context, attempt *domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[attempt.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	attempt.ID = s.nextIDLocked()
	for i := range attempt.Answers {
		a := &attempt.Answers[i]
		a.ID = s.nextIDLocked()
		a.AttemptID = attempt.ID
		stored := *a
		stored.Question = nil
		s.answers[a.ID] = stored
	}
	stored := *attempt
	stored.Quiz = nil
	stored.Answers = nil
	s.attempts[attempt.ID] = stored
	return nil
}

// ListAttempts returns completed attempts, most recently completed first.
func (s *Store) ListAttempts(_ context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempts := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if !a.Completed {
			continue
		}
		if filter.UserID != nil && (a.UserID == nil || *a.UserID != *filter.UserID) {
			continue
		}
		if filter.QuizID != nil && a.QuizID != *filter.QuizID {
			continue
		}
		attempts = append(attempts, s.attemptLocked(a, false))
	}
	sort.Slice(attempts, func(i, j int) bool {
		ci, cj := attempts[i].CompletedAt, attempts[j].CompletedAt
		if ci != nil && cj != nil && !ci.Equal(*cj) {
			return ci.After(*cj)
		}
		return attempts[i].ID > attempts[j].ID
	})
	if filter.Limit > 0 && len(attempts) > filter.Limit {
		attempts = attempts[:filter.Limit]
	}
	return attempts, nil
}

func (s *Store) GetAttempt(_ context.Context, id int64) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return s.attemptLocked(a, true), nil
}

func (s *Store) AttemptTotals(_ context.Context, userID int64) (domain.AttemptTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals domain.AttemptTotals
	var percentageSum float64
	quizzes := make(map[int64]struct{})
	for _, a := range s.attempts {
		if !a.Completed || a.UserID == nil || *a.UserID != userID {
			continue
		}
		totals.TotalAttempts++
		totals.TotalScore += a.Score
		percentageSum += a.Percentage
		quizzes[a.QuizID] = struct{}{}
	}
	totals.QuizzesCompleted = len(quizzes)
	if totals.TotalAttempts > 0 {
		totals.AveragePercentage = percentageSum / float64(totals.TotalAttempts)
	}
	return totals, nil
}

func (s *Store) attemptLocked(a domain.Attempt, withAnswers bool) domain.Attempt {
	a.Username = s.usernameLocked(a.UserID)
	if quiz, ok := s.quizLocked(a.QuizID); ok {
		a.Quiz = &quiz
	}
	if !withAnswers {
		return a
	}
	answers := make([]domain.Answer, 0)
	for _, ans := range s.answers {
		if ans.AttemptID != a.ID {
			continue
		}
		if a.Quiz != nil {
			if q, ok := a.Quiz.Question(ans.QuestionID); ok {
				ans.Question = &q
			}
		}
		answers = append(answers, ans)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	a.Answers = answers
	return a
}

func (s *Store) deleteAttemptLocked(id int64) {
	delete(s.attempts, id)
	for aid, a := range s.answers {
		if a.AttemptID == id {
			delete(s.answers, aid)
		}
	}
}
