package domain

import (
	"strconv"
	"time"
)

// QuestionType tags the grading variant of a question.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	FillBlank      QuestionType = "FILL_BLANK"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, FillBlank:
		return true
	}
	return false
}

// AnonymousName is shown for guests that did not give a name.
const AnonymousName = "Anonymous"

// User is an account able to log in and own quizzes.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID          int64
	Title       string
	Description string
	TimeLimit   int // minutes, 0 = unlimited
	IsActive    bool
	CreatedByID *int64
	CreatedBy   *User
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Questions   []Question
}

// QuestionCount returns the number of questions in the quiz.
func (q Quiz) QuestionCount() int {
	return len(q.Questions)
}

// TotalPoints sums the points of every question.
func (q Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// Question returns the question with the given id, if it belongs to the quiz.
func (q Quiz) Question(id int64) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Question is either a multiple choice or a fill-in-the-blank prompt.
type Question struct {
	ID                 int64
	QuizID             int64
	Text               string
	Type               QuestionType
	Points             int
	CorrectBlankAnswer string // alternatives separated by |
	CaseSensitive      bool
	Order              int
	Explanation        string
	CreatedAt          time.Time
	Choices            []Choice
}

// Choice returns the choice with the given id, if it belongs to the question.
func (q Question) Choice(id int64) (Choice, bool) {
	for _, choice := range q.Choices {
		if choice.ID == id {
			return choice, true
		}
	}
	return Choice{}, false
}

// Choice is an option of a multiple choice question.
type Choice struct {
	ID         int64
	QuestionID int64
	Text       string
	IsCorrect  bool
	Order      int
}

// Attempt is one run through a quiz by a user or a guest.
type Attempt struct {
	ID          int64
	UserID      *int64
	Username    string
	GuestName   string
	QuizID      int64
	Quiz        *Quiz
	Score       int
	TotalPoints int
	Percentage  float64
	TimeTaken   int // seconds
	Completed   bool
	StartedAt   time.Time
	CompletedAt *time.Time
	Answers     []Answer
}

// DisplayName is the name shown for the attempt on results and leaderboards.
func (a Attempt) DisplayName() string {
	return displayName(a.UserID, a.Username, a.GuestName)
}

// Identity returns the leaderboard identity that owns the attempt.
func (a Attempt) Identity() Identity {
	return NewIdentity(a.UserID, a.GuestName)
}

// Answer is the graded response to one question within an attempt.
type Answer struct {
	ID               int64
	AttemptID        int64
	QuestionID       int64
	Question         *Question
	SelectedChoiceID *int64
	TextAnswer       string
	IsCorrect        bool
	AnsweredAt       time.Time
}

// Identity is the aggregation key for best-score tracking: an authenticated
// user, or a guest identified by name. The empty guest name is the
// Anonymous bucket.
type Identity struct {
	UserID    *int64
	GuestName string
}

// NewIdentity drops the guest name when a user is present.
func NewIdentity(userID *int64, guestName string) Identity {
	if userID != nil {
		id := *userID
		return Identity{UserID: &id}
	}
	return Identity{GuestName: guestName}
}

// Key renders the identity as a stable string usable in unique constraints.
func (i Identity) Key() string {
	if i.UserID != nil {
		return "user:" + strconv.FormatInt(*i.UserID, 10)
	}
	return "guest:" + i.GuestName
}

// LeaderboardEntry holds the best result of one identity on one quiz.
type LeaderboardEntry struct {
	ID             int64
	UserID         *int64
	Username       string
	GuestName      string
	QuizID         int64
	BestScore      int
	BestPercentage float64
	BestTime       int
	AttemptsCount  int
	Version        int64
	LastAttemptAt  time.Time
}

// Identity returns the identity the entry aggregates.
func (e LeaderboardEntry) Identity() Identity {
	return NewIdentity(e.UserID, e.GuestName)
}

// DisplayName is the name shown on the leaderboard.
func (e LeaderboardEntry) DisplayName() string {
	return displayName(e.UserID, e.Username, e.GuestName)
}

// RankedEntry is a leaderboard entry with its 1-based position.
type RankedEntry struct {
	Rank int
	LeaderboardEntry
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    int64
	Entries   []RankedEntry
	UpdatedAt time.Time
}

// GlobalStanding aggregates the best results of one identity across quizzes.
type GlobalStanding struct {
	Rank              int
	DisplayName       string
	TotalScore        int
	QuizzesCompleted  int
	AveragePercentage float64
}

// AttemptFilter narrows attempt listings. Only completed attempts are listed.
type AttemptFilter struct {
	UserID *int64
	QuizID *int64
	Limit  int
}

// AttemptTotals are the SQL aggregates behind user statistics.
type AttemptTotals struct {
	TotalAttempts     int
	TotalScore        int
	AveragePercentage float64
	QuizzesCompleted  int
}

// UserStats summarises the completed attempts of a user.
type UserStats struct {
	AttemptTotals
	RecentAttempts []Attempt
}

func displayName(userID *int64, username, guestName string) string {
	if userID != nil && username != "" {
		return username
	}
	if guestName != "" {
		return guestName
	}
	return AnonymousName
}
