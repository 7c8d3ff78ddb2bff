package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quizboard-service/internal/domain"
)

func orderByPosition(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("position ASC, id ASC")
}

func (s *Store) ListQuizzes(ctx context.Context, activeOnly bool) ([]domain.Quiz, error) {
	var rows []*quizRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("CreatedBy").
		Relation("Questions", orderByPosition).
		OrderExpr("qz.created_at DESC, qz.id DESC")
	if activeOnly {
		q = q.Where("qz.is_active")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.toDomain())
	}
	return quizzes, nil
}

func (s *Store) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	row := new(quizRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("CreatedBy").
		Relation("Questions", orderByPosition).
		Relation("Questions.Choices", orderByPosition).
		Where("qz.id = ?", id).
		Scan(ctx)
	if isNoRows(err) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	now := s.now()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	row := newQuizRow(*quiz)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	quiz.ID = row.ID
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	quiz.UpdatedAt = s.now()
	row := newQuizRow(*quiz)
	res, err := s.db.NewUpdate().
		Model(row).
		Column("title", "description", "time_limit", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID *int64) ([]domain.Question, error) {
	var rows []*questionRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("Choices", orderByPosition).
		OrderExpr("qn.position ASC, qn.id ASC")
	if quizID != nil {
		q = q.Where("qn.quiz_id = ?", *quizID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toDomain())
	}
	return questions, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := new(questionRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("Choices", orderByPosition).
		Where("qn.id = ?", id).
		Scan(ctx)
	if isNoRows(err) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	question.CreatedAt = s.now()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := newQuestionRow(*question)
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			if isIntegrityViolation(err) {
				return domain.ErrQuizNotFound
			}
			return fmt.Errorf("create question: %w", err)
		}
		question.ID = row.ID
		for i := range question.Choices {
			question.Choices[i].ID = 0
		}
		return insertChoices(ctx, tx, question)
	})
}

// UpdateQuestion rewrites the question. Choices carrying the id of one of the
// question's choices are updated in place; the others are inserted, and
// existing choices not listed are deleted.
func (s *Store) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := newQuestionRow(*question)
		res, err := tx.NewUpdate().
			Model(row).
			Column("quiz_id", "question_text", "question_type", "points", "correct_blank_answer",
				"case_sensitive", "position", "explanation").
			WherePK().
			Exec(ctx)
		if err != nil {
			if isIntegrityViolation(err) {
				return domain.ErrQuizNotFound
			}
			return fmt.Errorf("update question: %w", err)
		}
		if affected(res) == 0 {
			return domain.ErrQuestionNotFound
		}

		var existing []*choiceRow
		if err := tx.NewSelect().Model(&existing).Where("question_id = ?", question.ID).Scan(ctx); err != nil {
			return fmt.Errorf("load choices: %w", err)
		}
		owned := make(map[int64]bool, len(existing))
		for _, c := range existing {
			owned[c.ID] = true
		}

		kept := make([]int64, 0, len(question.Choices))
		for i := range question.Choices {
			c := &question.Choices[i]
			c.QuestionID = question.ID
			if c.ID == 0 || !owned[c.ID] {
				c.ID = 0
				continue
			}
			if _, err := tx.NewUpdate().
				Model(newChoiceRow(*c)).
				Column("choice_text", "is_correct", "position").
				WherePK().
				Exec(ctx); err != nil {
				return fmt.Errorf("update choice: %w", err)
			}
			kept = append(kept, c.ID)
		}

		del := tx.NewDelete().Model((*choiceRow)(nil)).Where("question_id = ?", question.ID)
		if len(kept) > 0 {
			del = del.Where("id NOT IN (?)", bun.In(kept))
		}
		if _, err := del.Exec(ctx); err != nil {
			return fmt.Errorf("delete choices: %w", err)
		}
		return insertChoices(ctx, tx, question)
	})
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if affected(res) == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// insertChoices stores the choices of question that have no id yet.
func insertChoices(ctx context.Context, tx bun.Tx, question *domain.Question) error {
	for i := range question.Choices {
		c := &question.Choices[i]
		if c.ID != 0 {
			continue
		}
		c.QuestionID = question.ID
		row := newChoiceRow(*c)
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("create choice: %w", err)
		}
		c.ID = row.ID
	}
	return nil
}
