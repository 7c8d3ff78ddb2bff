package memory

import (
	"sort"
	"sync"
	"time"

	"quizboard-service/internal/domain"
)

// Store is an in-memory implementation of the catalog, attempt, leaderboard
// and user repositories. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time

	lastID int64

	users     map[int64]domain.User
	quizzes   map[int64]domain.Quiz
	questions map[int64]domain.Question
	choices   map[int64]domain.Choice
	attempts  map[int64]domain.Attempt
	answers   map[int64]domain.Answer
	entries   map[int64]domain.LeaderboardEntry
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:     now,
		users:     make(map[int64]domain.User),
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64]domain.Question),
		choices:   make(map[int64]domain.Choice),
		attempts:  make(map[int64]domain.Attempt),
		answers:   make(map[int64]domain.Answer),
		entries:   make(map[int64]domain.LeaderboardEntry),
	}
}

// nextIDLocked hands out ids shared by every table, so they keep insertion order.
func (s *Store) nextIDLocked() int64 {
	s.lastID++
	return s.lastID
}

// quizLocked assembles a quiz with its ordered questions and choices.
func (s *Store) quizLocked(id int64) (domain.Quiz, bool) {
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, false
	}
	quiz.Questions = s.questionsLocked(&id)
	if quiz.CreatedByID != nil {
		if user, ok := s.users[*quiz.CreatedByID]; ok {
			u := user
			quiz.CreatedBy = &u
		}
	}
	return quiz, true
}

func (s *Store) questionsLocked(quizID *int64) []domain.Question {
	questions := make([]domain.Question, 0)
	for _, q := range s.questions {
		if quizID != nil && q.QuizID != *quizID {
			continue
		}
		q.Choices = s.choicesLocked(q.ID)
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Order != questions[j].Order {
			return questions[i].Order < questions[j].Order
		}
		return questions[i].ID < questions[j].ID
	})
	return questions
}

func (s *Store) choicesLocked(questionID int64) []domain.Choice {
	choices := make([]domain.Choice, 0)
	for _, c := range s.choices {
		if c.QuestionID == questionID {
			choices = append(choices, c)
		}
	}
	sort.Slice(choices, func(i, j int) bool {
		if choices[i].Order != choices[j].Order {
			return choices[i].Order < choices[j].Order
		}
		return choices[i].ID < choices[j].ID
	})
	return choices
}

func (s *Store) usernameLocked(userID *int64) string {
	if userID == nil {
		return ""
	}
	return s.users[*userID].Username
}
