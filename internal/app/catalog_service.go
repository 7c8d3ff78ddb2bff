package app

import (
	"context"
	"errors"

	"quizboard-service/internal/domain"
)

// CatalogService exposes CRUD over quizzes and questions.
type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListQuizzes returns active quizzes, newest first.
func (s *CatalogService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.repo.ListQuizzes(ctx, true)
}

// GetQuiz returns an active quiz with its questions and choices.
func (s *CatalogService) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	quiz, err := s.repo.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !quiz.IsActive {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// CreateQuiz validates and stores a quiz owned by owner, when given.
func (s *CatalogService) CreateQuiz(ctx context.Context, quiz domain.Quiz, owner *domain.User) (domain.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions = nil
	if owner != nil {
		id := owner.ID
		quiz.CreatedByID = &id
		quiz.CreatedBy = owner
	}
	if err := s.repo.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// QuizPatch lists the writable quiz fields; nil fields are left unchanged.
type QuizPatch struct {
	Title       *string
	Description *string
	TimeLimit   *int
	IsActive    *bool
}

// UpdateQuiz applies patch to an active quiz.
func (s *CatalogService) UpdateQuiz(ctx context.Context, id int64, patch QuizPatch) (domain.Quiz, error) {
	quiz, err := s.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	if patch.TimeLimit != nil {
		quiz.TimeLimit = *patch.TimeLimit
	}
	if patch.IsActive != nil {
		quiz.IsActive = *patch.IsActive
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.repo.UpdateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes an active quiz and everything it owns.
func (s *CatalogService) DeleteQuiz(ctx context.Context, id int64) error {
	if _, err := s.GetQuiz(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteQuiz(ctx, id)
}

// ListQuestions returns questions, optionally restricted to one quiz.
func (s *CatalogService) ListQuestions(ctx context.Context, quizID *int64) ([]domain.Question, error) {
	return s.repo.ListQuestions(ctx, quizID)
}

func (s *CatalogService) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.repo.GetQuestion(ctx, id)
}

// CreateQuestion validates the per-type invariants and stores the question with its choices.
func (s *CatalogService) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	if _, err := s.repo.GetQuiz(ctx, question.QuizID); err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.Question{}, domain.NewValidationError("quiz", "Invalid pk - object does not exist.")
		}
		return domain.Question{}, err
	}
	if err := question.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.repo.CreateQuestion(ctx, &question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// QuestionPatch lists the writable question fields; nil fields are left unchanged.
// A non-nil Choices replaces the whole choice set.
type QuestionPatch struct {
	QuizID             *int64
	Text               *string
	Type               *domain.QuestionType
	Points             *int
	CorrectBlankAnswer *string
	CaseSensitive      *bool
	Order              *int
	Explanation        *string
	Choices            *[]domain.Choice
}

// UpdateQuestion applies patch and re-checks the invariants of the result.
func (s *CatalogService) UpdateQuestion(ctx context.Context, id int64, patch QuestionPatch) (domain.Question, error) {
	question, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if patch.QuizID != nil && *patch.QuizID != question.QuizID {
		if _, err := s.repo.GetQuiz(ctx, *patch.QuizID); err != nil {
			if errors.Is(err, domain.ErrQuizNotFound) {
				return domain.Question{}, domain.NewValidationError("quiz", "Invalid pk - object does not exist.")
			}
			return domain.Question{}, err
		}
		question.QuizID = *patch.QuizID
	}
	if patch.Text != nil {
		question.Text = *patch.Text
	}
	if patch.Type != nil {
		question.Type = *patch.Type
	}
	if patch.Points != nil {
		question.Points = *patch.Points
	}
	if patch.CorrectBlankAnswer != nil {
		question.CorrectBlankAnswer = *patch.CorrectBlankAnswer
	}
	if patch.CaseSensitive != nil {
		question.CaseSensitive = *patch.CaseSensitive
	}
	if patch.Order != nil {
		question.Order = *patch.Order
	}
	if patch.Explanation != nil {
		question.Explanation = *patch.Explanation
	}
	if patch.Choices != nil {
		question.Choices = append([]domain.Choice(nil), (*patch.Choices)...)
	}
	if err := question.Validate(); err != nil {
		return domain.Question{}, err
	}
	if err := s.repo.UpdateQuestion(ctx, &question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, id int64) error {
	return s.repo.DeleteQuestion(ctx, id)
}
