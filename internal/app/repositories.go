package app

import (
	"context"

	"quizboard-service/internal/domain"
)

// CatalogRepository persists the Quiz → Question → Choice hierarchy.
type CatalogRepository interface {
	ListQuizzes(ctx context.Context, activeOnly bool) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error
	DeleteQuiz(ctx context.Context, id int64) error

	ListQuestions(ctx context.Context, quizID *int64) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	// CreateQuestion stores the question together with its choices.
	CreateQuestion(ctx context.Context, question *domain.Question) error
	// UpdateQuestion rewrites the question and replaces its choices.
	UpdateQuestion(ctx context.Context, question *domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// QuizLoader loads a quiz with its questions and choices for grading.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// AttemptRepository stores completed attempts and their answers.
type AttemptRepository interface {
	// CreateAttempt writes the attempt and all answers atomically.
	CreateAttempt(ctx context.Context, attempt *domain.Attempt) error
	ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error)
	GetAttempt(ctx context.Context, id int64) (domain.Attempt, error)
	AttemptTotals(ctx context.Context, userID int64) (domain.AttemptTotals, error)
}

// LeaderboardRepository maintains best-result rows.
type LeaderboardRepository interface {
	// RecordAttempt applies a completed attempt to the identity's entry with
	// compare-and-swap semantics and returns the stored entry.
	RecordAttempt(ctx context.Context, attempt domain.Attempt) (domain.LeaderboardEntry, error)
	// QuizEntries returns entries in ranking order; limit <= 0 means all.
	QuizEntries(ctx context.Context, quizID int64, limit int) ([]domain.LeaderboardEntry, error)
	// GlobalStandings returns per-identity aggregates in ranking order, without ranks.
	GlobalStandings(ctx context.Context, limit int) ([]domain.GlobalStanding, error)
	// ReplaceQuizEntries drops every entry of the quiz and stores entries instead.
	ReplaceQuizEntries(ctx context.Context, quizID int64, entries []domain.LeaderboardEntry) error
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenStore maps opaque bearer tokens to user IDs, one token per user.
type TokenStore interface {
	// Issue returns the user's existing token, or stores and returns token.
	Issue(ctx context.Context, userID int64, token string) (string, error)
	Lookup(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, userID int64) error
}
