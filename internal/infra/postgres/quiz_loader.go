package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizboard-service/internal/domain"
)

// QuizLoader reads a quiz with its questions and choices for grading.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, description, time_limit, is_active, created_by_id, created_at, updated_at
		 FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.TimeLimit, &quiz.IsActive,
			&quiz.CreatedByID, &quiz.CreatedAt, &quiz.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, question_text, question_type, points, correct_blank_answer, case_sensitive,
		        position, explanation, created_at
		 FROM questions WHERE quiz_id=$1 ORDER BY position, id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	index := make(map[int64]int)
	for rows.Next() {
		q := domain.Question{QuizID: quizID}
		var qtype string
		if err := rows.Scan(&q.ID, &q.Text, &qtype, &q.Points, &q.CorrectBlankAnswer, &q.CaseSensitive,
			&q.Order, &q.Explanation, &q.CreatedAt); err != nil {
			rows.Close()
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qtype)
		index[q.ID] = len(quiz.Questions)
		quiz.Questions = append(quiz.Questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}

	rows, err = l.pool.Query(ctx,
		`SELECT c.id, c.question_id, c.choice_text, c.is_correct, c.position
		 FROM choices c JOIN questions q ON q.id = c.question_id
		 WHERE q.quiz_id=$1 ORDER BY c.position, c.id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load choices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect, &c.Order); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan choice: %w", err)
		}
		if i, ok := index[c.QuestionID]; ok {
			quiz.Questions[i].Choices = append(quiz.Questions[i].Choices, c)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load choices: %w", err)
	}
	return quiz, nil
}
