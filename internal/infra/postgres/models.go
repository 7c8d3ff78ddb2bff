package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizboard-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	DateJoined   time.Time `bun:"date_joined,notnull"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID          int64          `bun:"id,pk,autoincrement"`
	Title       string         `bun:"title,notnull"`
	Description string         `bun:"description,notnull"`
	CreatedByID *int64         `bun:"created_by_id"`
	CreatedBy   *userRow       `bun:"rel:belongs-to,join:created_by_id=id"`
	TimeLimit   int            `bun:"time_limit,notnull"`
	IsActive    bool           `bun:"is_active,notnull"`
	CreatedAt   time.Time      `bun:"created_at,notnull"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull"`
	Questions   []*questionRow `bun:"rel:has-many,join:id=quiz_id"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID                 int64        `bun:"id,pk,autoincrement"`
	QuizID             int64        `bun:"quiz_id,notnull"`
	Text               string       `bun:"question_text,notnull"`
	Type               string       `bun:"question_type,notnull"`
	Points             int          `bun:"points,notnull"`
	CorrectBlankAnswer string       `bun:"correct_blank_answer,notnull"`
	CaseSensitive      bool         `bun:"case_sensitive,notnull"`
	Position           int          `bun:"position,notnull"`
	Explanation        string       `bun:"explanation,notnull"`
	CreatedAt          time.Time    `bun:"created_at,notnull"`
	Choices            []*choiceRow `bun:"rel:has-many,join:id=question_id"`
}

type choiceRow struct {
	bun.BaseModel `bun:"table:choices,alias:ch"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"choice_text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
	Position   int    `bun:"position,notnull"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:at"`

	ID          int64        `bun:"id,pk,autoincrement"`
	UserID      *int64       `bun:"user_id"`
	User        *userRow     `bun:"rel:belongs-to,join:user_id=id"`
	GuestName   string       `bun:"guest_name,notnull"`
	QuizID      int64        `bun:"quiz_id,notnull"`
	Score       int          `bun:"score,notnull"`
	TotalPoints int          `bun:"total_points,notnull"`
	Percentage  float64      `bun:"percentage,notnull"`
	TimeTaken   int          `bun:"time_taken,notnull"`
	Completed   bool         `bun:"completed,notnull"`
	StartedAt   time.Time    `bun:"started_at,notnull"`
	CompletedAt *time.Time   `bun:"completed_at"`
	Answers     []*answerRow `bun:"rel:has-many,join:id=attempt_id"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:an"`

	ID               int64     `bun:"id,pk,autoincrement"`
	AttemptID        int64     `bun:"attempt_id,notnull"`
	QuestionID       int64     `bun:"question_id,notnull"`
	SelectedChoiceID *int64    `bun:"selected_choice_id"`
	TextAnswer       string    `bun:"text_answer,notnull"`
	IsCorrect        bool      `bun:"is_correct,notnull"`
	AnsweredAt       time.Time `bun:"answered_at,notnull"`
}

type entryRow struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:le"`

	ID             int64     `bun:"id,pk,autoincrement"`
	IdentityKey    string    `bun:"identity_key,notnull"`
	UserID         *int64    `bun:"user_id"`
	User           *userRow  `bun:"rel:belongs-to,join:user_id=id"`
	GuestName      string    `bun:"guest_name,notnull"`
	QuizID         int64     `bun:"quiz_id,notnull"`
	BestScore      int       `bun:"best_score,notnull"`
	BestPercentage float64   `bun:"best_percentage,notnull"`
	BestTime       int       `bun:"best_time,notnull"`
	AttemptsCount  int       `bun:"attempts_count,notnull"`
	Version        int64     `bun:"version,notnull"`
	LastAttemptAt  time.Time `bun:"last_attempt_at,notnull"`
}

func (r *userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		DateJoined:   r.DateJoined,
	}
}

func newUserRow(u domain.User) *userRow {
	return &userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		DateJoined:   u.DateJoined,
	}
}

func (r *quizRow) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TimeLimit:   r.TimeLimit,
		IsActive:    r.IsActive,
		CreatedByID: r.CreatedByID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Questions:   make([]domain.Question, 0, len(r.Questions)),
	}
	if r.CreatedBy != nil {
		u := r.CreatedBy.toDomain()
		quiz.CreatedBy = &u
	}
	for _, q := range r.Questions {
		quiz.Questions = append(quiz.Questions, q.toDomain())
	}
	return quiz
}

func newQuizRow(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		CreatedByID: q.CreatedByID,
		TimeLimit:   q.TimeLimit,
		IsActive:    q.IsActive,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (r *questionRow) toDomain() domain.Question {
	question := domain.Question{
		ID:                 r.ID,
		QuizID:             r.QuizID,
		Text:               r.Text,
		Type:               domain.QuestionType(r.Type),
		Points:             r.Points,
		CorrectBlankAnswer: r.CorrectBlankAnswer,
		CaseSensitive:      r.CaseSensitive,
		Order:              r.Position,
		Explanation:        r.Explanation,
		CreatedAt:          r.CreatedAt,
		Choices:            make([]domain.Choice, 0, len(r.Choices)),
	}
	for _, c := range r.Choices {
		question.Choices = append(question.Choices, c.toDomain())
	}
	return question
}

func newQuestionRow(q domain.Question) *questionRow {
	return &questionRow{
		ID:                 q.ID,
		QuizID:             q.QuizID,
		Text:               q.Text,
		Type:               string(q.Type),
		Points:             q.Points,
		CorrectBlankAnswer: q.CorrectBlankAnswer,
		CaseSensitive:      q.CaseSensitive,
		Position:           q.Order,
		Explanation:        q.Explanation,
		CreatedAt:          q.CreatedAt,
	}
}

func (r *choiceRow) toDomain() domain.Choice {
	return domain.Choice{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		Text:       r.Text,
		IsCorrect:  r.IsCorrect,
		Order:      r.Position,
	}
}

func newChoiceRow(c domain.Choice) *choiceRow {
	return &choiceRow{
		ID:         c.ID,
		QuestionID: c.QuestionID,
		Text:       c.Text,
		IsCorrect:  c.IsCorrect,
		Position:   c.Order,
	}
}

func (r *attemptRow) toDomain() domain.Attempt {
	attempt := domain.Attempt{
		ID:          r.ID,
		UserID:      r.UserID,
		GuestName:   r.GuestName,
		QuizID:      r.QuizID,
		Score:       r.Score,
		TotalPoints: r.TotalPoints,
		Percentage:  r.Percentage,
		TimeTaken:   r.TimeTaken,
		Completed:   r.Completed,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	if r.User != nil {
		attempt.Username = r.User.Username
	}
	for _, a := range r.Answers {
		attempt.Answers = append(attempt.Answers, a.toDomain())
	}
	return attempt
}

func newAttemptRow(a domain.Attempt) *attemptRow {
	return &attemptRow{
		ID:          a.ID,
		UserID:      a.UserID,
		GuestName:   a.GuestName,
		QuizID:      a.QuizID,
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  a.Percentage,
		TimeTaken:   a.TimeTaken,
		Completed:   a.Completed,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
}

func (r *answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:               r.ID,
		AttemptID:        r.AttemptID,
		QuestionID:       r.QuestionID,
		SelectedChoiceID: r.SelectedChoiceID,
		TextAnswer:       r.TextAnswer,
		IsCorrect:        r.IsCorrect,
		AnsweredAt:       r.AnsweredAt,
	}
}

func newAnswerRow(a domain.Answer) *answerRow {
	return &answerRow{
		ID:               a.ID,
		AttemptID:        a.AttemptID,
		QuestionID:       a.QuestionID,
		SelectedChoiceID: a.SelectedChoiceID,
		TextAnswer:       a.TextAnswer,
		IsCorrect:        a.IsCorrect,
		AnsweredAt:       a.AnsweredAt,
	}
}

func (r *entryRow) toDomain() domain.LeaderboardEntry {
	entry := domain.LeaderboardEntry{
		ID:             r.ID,
		UserID:         r.UserID,
		GuestName:      r.GuestName,
		QuizID:         r.QuizID,
		BestScore:      r.BestScore,
		BestPercentage: r.BestPercentage,
		BestTime:       r.BestTime,
		AttemptsCount:  r.AttemptsCount,
		Version:        r.Version,
		LastAttemptAt:  r.LastAttemptAt,
	}
	if r.User != nil {
		entry.Username = r.User.Username
	}
	return entry
}

func newEntryRow(e domain.LeaderboardEntry) *entryRow {
	return &entryRow{
		ID:             e.ID,
		IdentityKey:    e.Identity().Key(),
		UserID:         e.UserID,
		GuestName:      e.GuestName,
		QuizID:         e.QuizID,
		BestScore:      e.BestScore,
		BestPercentage: e.BestPercentage,
		BestTime:       e.BestTime,
		AttemptsCount:  e.AttemptsCount,
		Version:        e.Version,
		LastAttemptAt:  e.LastAttemptAt,
	}
}
