package memory

import (
	"context"
	"sort"

	"quizboard-service/internal/domain"
)

func (s *Store) ListQuizzes(_ context.Context, activeOnly bool) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for id, q := range s.quizzes {
		if activeOnly && !q.IsActive {
			continue
		}
		quiz, _ := s.quizLocked(id)
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID > quizzes[j].ID
	})
	return quizzes, nil
}

func (s *Store) GetQuiz(_ context.Context, id int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizLocked(id)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// LoadQuiz implements app.QuizLoader.
func (s *Store) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.GetQuiz(ctx, quizID)
}

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	quiz.ID = s.nextIDLocked()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	stored := *quiz
	stored.Questions = nil
	stored.CreatedBy = nil
	s.quizzes[quiz.ID] = stored
	return nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	existing.Title = quiz.Title
	existing.Description = quiz.Description
	existing.TimeLimit = quiz.TimeLimit
	existing.IsActive = quiz.IsActive
	existing.UpdatedAt = s.clock()
	s.quizzes[quiz.ID] = existing
	quiz.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	for qid, q := range s.questions {
		if q.QuizID == id {
			s.deleteQuestionLocked(qid)
		}
	}
	for aid, a := range s.attempts {
		if a.QuizID == id {
			s.deleteAttemptLocked(aid)
		}
	}
	for eid, e := range s.entries {
		if e.QuizID == id {
			delete(s.entries, eid)
		}
	}
	return nil
}

func (s *Store) ListQuestions(_ context.Context, quizID *int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionsLocked(quizID), nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	q.Choices = s.choicesLocked(id)
	return q, nil
}

func (s *Store) CreateQuestion(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	question.ID = s.nextIDLocked()
	question.CreatedAt = s.clock()
	for i := range question.Choices {
		question.Choices[i].ID = 0
	}
	s.putChoicesLocked(question)
	stored := *question
	stored.Choices = nil
	s.questions[question.ID] = stored
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.questions[question.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	keep := make(map[int64]bool, len(question.Choices))
	for i := range question.Choices {
		c := &question.Choices[i]
		if current, ok := s.choices[c.ID]; ok && current.QuestionID == question.ID {
			keep[c.ID] = true
			continue
		}
		c.ID = 0
	}
	for cid, c := range s.choices {
		if c.QuestionID == question.ID && !keep[cid] {
			delete(s.choices, cid)
		}
	}
	question.CreatedAt = existing.CreatedAt
	s.putChoicesLocked(question)
	stored := *question
	stored.Choices = nil
	s.questions[question.ID] = stored
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.deleteQuestionLocked(id)
	return nil
}

// putChoicesLocked stores the choices, assigning ids to new ones.
func (s *Store) putChoicesLocked(question *domain.Question) {
	for i := range question.Choices {
		c := &question.Choices[i]
		if c.ID == 0 {
			c.ID = s.nextIDLocked()
		}
		c.QuestionID = question.ID
		s.choices[c.ID] = *c
	}
}

func (s *Store) deleteQuestionLocked(id int64) {
	delete(s.questions, id)
	for cid, c := range s.choices {
		if c.QuestionID == id {
			delete(s.choices, cid)
		}
	}
	for aid, a := range s.answers {
		if a.QuestionID == id {
			delete(s.answers, aid)
		}
	}
}
