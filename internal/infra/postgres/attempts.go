package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quizboard-service/internal/domain"
)

// CreateAttempt stores the attempt and its answers in one transaction.
func (s *Store) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := newAttemptRow(*attempt)
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			if isIntegrityViolation(err) {
				return domain.ErrQuizNotFound
			}
			return fmt.Errorf("create attempt: %w", err)
		}
		attempt.ID = row.ID
		if len(attempt.Answers) == 0 {
			return nil
		}

		answers := make([]*answerRow, 0, len(attempt.Answers))
		for i := range attempt.Answers {
			attempt.Answers[i].AttemptID = attempt.ID
			answers = append(answers, newAnswerRow(attempt.Answers[i]))
		}
		if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
			return fmt.Errorf("create answers: %w", err)
		}
		for i, a := range answers {
			attempt.Answers[i].ID = a.ID
		}
		return nil
	})
}

// ListAttempts returns completed attempts, most recently completed first.
func (s *Store) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	var rows []*attemptRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("User").
		Where("at.completed").
		OrderExpr("at.completed_at DESC, at.id DESC")
	if filter.UserID != nil {
		q = q.Where("at.user_id = ?", *filter.UserID)
	}
	if filter.QuizID != nil {
		q = q.Where("at.quiz_id = ?", *filter.QuizID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.QuizID)
	}
	quizzes, err := s.quizzesByID(ctx, ids, false)
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		a := row.toDomain()
		if quiz, ok := quizzes[a.QuizID]; ok {
			a.Quiz = &quiz
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

func (s *Store) GetAttempt(ctx context.Context, id int64) (domain.Attempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("User").
		Relation("Answers", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("id ASC")
		}).
		Where("at.id = ?", id).
		Scan(ctx)
	if isNoRows(err) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}

	quizzes, err := s.quizzesByID(ctx, []int64{row.QuizID}, true)
	if err != nil {
		return domain.Attempt{}, err
	}
	a := row.toDomain()
	if quiz, ok := quizzes[a.QuizID]; ok {
		a.Quiz = &quiz
		for i := range a.Answers {
			if q, ok := quiz.Question(a.Answers[i].QuestionID); ok {
				a.Answers[i].Question = &q
			}
		}
	}
	return a, nil
}

type totalsRow struct {
	TotalAttempts     int     `bun:"total_attempts"`
	TotalScore        int     `bun:"total_score"`
	AveragePercentage float64 `bun:"average_percentage"`
	QuizzesCompleted  int     `bun:"quizzes_completed"`
}

func (s *Store) AttemptTotals(ctx context.Context, userID int64) (domain.AttemptTotals, error) {
	var row totalsRow
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		ColumnExpr("COUNT(*) AS total_attempts").
		ColumnExpr("COALESCE(SUM(at.score), 0) AS total_score").
		ColumnExpr("COALESCE(AVG(at.percentage), 0)::float8 AS average_percentage").
		ColumnExpr("COUNT(DISTINCT at.quiz_id) AS quizzes_completed").
		Where("at.completed").
		Where("at.user_id = ?", userID).
		Scan(ctx, &row)
	if err != nil {
		return domain.AttemptTotals{}, fmt.Errorf("attempt totals: %w", err)
	}
	return domain.AttemptTotals{
		TotalAttempts:     row.TotalAttempts,
		TotalScore:        row.TotalScore,
		AveragePercentage: row.AveragePercentage,
		QuizzesCompleted:  row.QuizzesCompleted,
	}, nil
}

func (s *Store) quizzesByID(ctx context.Context, ids []int64, withChoices bool) (map[int64]domain.Quiz, error) {
	out := make(map[int64]domain.Quiz, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*quizRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("Questions", orderByPosition).
		Where("qz.id IN (?)", bun.In(ids))
	if withChoices {
		q = q.Relation("Questions.Choices", orderByPosition)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("load attempt quizzes: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}
