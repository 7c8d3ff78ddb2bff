package http

import (
	"time"

	"quizboard-service/internal/domain"
)

type ownerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type choiceResponse struct {
	ID    int64  `json:"id"`
	Text  string `json:"choice_text"`
	Order int    `json:"order"`
}

type choiceWithAnswerResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"choice_text"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

// questionResponse is the quiz-taking view: correct answers stay hidden.
type questionResponse struct {
	ID             int64            `json:"id"`
	QuizID         int64            `json:"quiz"`
	Text           string           `json:"question_text"`
	DisplayText    string           `json:"display_text"`
	Type           string           `json:"question_type"`
	Points         int              `json:"points"`
	Order          int              `json:"order"`
	BlankPositions [][2]int         `json:"blank_positions"`
	Choices        []choiceResponse `json:"choices"`
}

type questionWithAnswerResponse struct {
	ID                 int64                      `json:"id"`
	Text               string                     `json:"question_text"`
	DisplayText        string                     `json:"display_text"`
	Type               string                     `json:"question_type"`
	Points             int                        `json:"points"`
	Order              int                        `json:"order"`
	CorrectBlankAnswer string                     `json:"correct_blank_answer"`
	Explanation        string                     `json:"explanation"`
	Choices            []choiceWithAnswerResponse `json:"choices"`
}

type quizListResponse struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	QuestionCount int            `json:"question_count"`
	TotalPoints   int            `json:"total_points"`
	TimeLimit     int            `json:"time_limit"`
	IsActive      bool           `json:"is_active"`
	CreatedBy     *ownerResponse `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

type quizDetailResponse struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	QuestionCount int                `json:"question_count"`
	TotalPoints   int                `json:"total_points"`
	TimeLimit     int                `json:"time_limit"`
	IsActive      bool               `json:"is_active"`
	Questions     []questionResponse `json:"questions"`
	CreatedAt     time.Time          `json:"created_at"`
}

type attemptResponse struct {
	ID          int64            `json:"id"`
	Quiz        quizListResponse `json:"quiz"`
	DisplayName string           `json:"display_name"`
	Score       int              `json:"score"`
	TotalPoints int              `json:"total_points"`
	Percentage  float64          `json:"percentage"`
	TimeTaken   int              `json:"time_taken"`
	Completed   bool             `json:"completed"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}

type answerResultResponse struct {
	Question       questionWithAnswerResponse `json:"question"`
	SelectedChoice *choiceWithAnswerResponse  `json:"selected_choice"`
	TextAnswer     string                     `json:"text_answer"`
	IsCorrect      bool                       `json:"is_correct"`
}

type attemptDetailResponse struct {
	ID          int64                  `json:"id"`
	Quiz        quizDetailResponse     `json:"quiz"`
	DisplayName string                 `json:"display_name"`
	Score       int                    `json:"score"`
	TotalPoints int                    `json:"total_points"`
	Percentage  float64                `json:"percentage"`
	TimeTaken   int                    `json:"time_taken"`
	Completed   bool                   `json:"completed"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at"`
	Answers     []answerResultResponse `json:"answers"`
	Rank        int                    `json:"rank,omitempty"`
}

type leaderboardEntryResponse struct {
	ID             int64     `json:"id"`
	DisplayName    string    `json:"display_name"`
	BestScore      int       `json:"best_score"`
	BestPercentage float64   `json:"best_percentage"`
	BestTime       int       `json:"best_time"`
	AttemptsCount  int       `json:"attempts_count"`
	LastAttemptAt  time.Time `json:"last_attempt_at"`
	Rank           int       `json:"rank"`
}

type leaderboardSnapshot struct {
	QuizID    int64                      `json:"quiz_id"`
	Entries   []leaderboardEntryResponse `json:"entries"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

type globalStandingResponse struct {
	Rank              int     `json:"rank"`
	DisplayName       string  `json:"display_name"`
	TotalScore        int     `json:"total_score"`
	QuizzesCompleted  int     `json:"quizzes_completed"`
	AveragePercentage float64 `json:"average_percentage"`
}

type statsResponse struct {
	TotalAttempts     int               `json:"total_attempts"`
	TotalScore        int               `json:"total_score"`
	AveragePercentage float64           `json:"average_percentage"`
	QuizzesCompleted  int               `json:"quizzes_completed"`
	RecentAttempts    []attemptResponse `json:"recent_attempts"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newOwnerResponse(u *domain.User) *ownerResponse {
	if u == nil {
		return nil
	}
	return &ownerResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func newQuestionResponse(q domain.Question) questionResponse {
	out := questionResponse{
		ID:             q.ID,
		QuizID:         q.QuizID,
		Text:           q.Text,
		DisplayText:    q.DisplayText(),
		Type:           string(q.Type),
		Points:         q.Points,
		Order:          q.Order,
		BlankPositions: q.BlankPositions(),
		Choices:        make([]choiceResponse, 0, len(q.Choices)),
	}
	if out.BlankPositions == nil {
		out.BlankPositions = [][2]int{}
	}
	for _, c := range q.Choices {
		out.Choices = append(out.Choices, choiceResponse{ID: c.ID, Text: c.Text, Order: c.Order})
	}
	return out
}

func newChoiceWithAnswer(c domain.Choice) choiceWithAnswerResponse {
	return choiceWithAnswerResponse{ID: c.ID, Text: c.Text, IsCorrect: c.IsCorrect, Order: c.Order}
}

func newQuestionWithAnswerResponse(q domain.Question) questionWithAnswerResponse {
	out := questionWithAnswerResponse{
		ID:                 q.ID,
		Text:               q.Text,
		DisplayText:        q.DisplayText(),
		Type:               string(q.Type),
		Points:             q.Points,
		Order:              q.Order,
		CorrectBlankAnswer: q.CorrectBlankAnswer,
		Explanation:        q.Explanation,
		Choices:            make([]choiceWithAnswerResponse, 0, len(q.Choices)),
	}
	for _, c := range q.Choices {
		out.Choices = append(out.Choices, newChoiceWithAnswer(c))
	}
	return out
}

func newQuizListResponse(q domain.Quiz) quizListResponse {
	return quizListResponse{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		QuestionCount: q.QuestionCount(),
		TotalPoints:   q.TotalPoints(),
		TimeLimit:     q.TimeLimit,
		IsActive:      q.IsActive,
		CreatedBy:     newOwnerResponse(q.CreatedBy),
		CreatedAt:     q.CreatedAt,
	}
}

func newQuizDetailResponse(q domain.Quiz) quizDetailResponse {
	out := quizDetailResponse{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		QuestionCount: q.QuestionCount(),
		TotalPoints:   q.TotalPoints(),
		TimeLimit:     q.TimeLimit,
		IsActive:      q.IsActive,
		Questions:     make([]questionResponse, 0, len(q.Questions)),
		CreatedAt:     q.CreatedAt,
	}
	for _, question := range q.Questions {
		out.Questions = append(out.Questions, newQuestionResponse(question))
	}
	return out
}

func newAttemptResponse(a domain.Attempt) attemptResponse {
	out := attemptResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName(),
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  a.Percentage,
		TimeTaken:   a.TimeTaken,
		Completed:   a.Completed,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
	if a.Quiz != nil {
		out.Quiz = newQuizListResponse(*a.Quiz)
	} else {
		out.Quiz = quizListResponse{ID: a.QuizID}
	}
	return out
}

func newAttemptDetailResponse(a domain.Attempt, rank int) attemptDetailResponse {
	out := attemptDetailResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName(),
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  a.Percentage,
		TimeTaken:   a.TimeTaken,
		Completed:   a.Completed,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		Answers:     make([]answerResultResponse, 0, len(a.Answers)),
		Rank:        rank,
	}
	if a.Quiz != nil {
		out.Quiz = newQuizDetailResponse(*a.Quiz)
	} else {
		out.Quiz = quizDetailResponse{ID: a.QuizID, Questions: []questionResponse{}}
	}
	for _, ans := range a.Answers {
		result := answerResultResponse{TextAnswer: ans.TextAnswer, IsCorrect: ans.IsCorrect}
		if ans.Question != nil {
			result.Question = newQuestionWithAnswerResponse(*ans.Question)
			if ans.SelectedChoiceID != nil {
				if c, ok := ans.Question.Choice(*ans.SelectedChoiceID); ok {
					selected := newChoiceWithAnswer(c)
					result.SelectedChoice = &selected
				}
			}
		} else {
			result.Question = questionWithAnswerResponse{ID: ans.QuestionID, Choices: []choiceWithAnswerResponse{}}
		}
		out.Answers = append(out.Answers, result)
	}
	return out
}

func newLeaderboardEntries(entries []domain.RankedEntry) []leaderboardEntryResponse {
	out := make([]leaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryResponse{
			ID:             e.ID,
			DisplayName:    e.DisplayName(),
			BestScore:      e.BestScore,
			BestPercentage: e.BestPercentage,
			BestTime:       e.BestTime,
			AttemptsCount:  e.AttemptsCount,
			LastAttemptAt:  e.LastAttemptAt,
			Rank:           e.Rank,
		})
	}
	return out
}

func newLeaderboardSnapshot(lb domain.Leaderboard) leaderboardSnapshot {
	return leaderboardSnapshot{
		QuizID:    lb.QuizID,
		Entries:   newLeaderboardEntries(lb.Entries),
		UpdatedAt: lb.UpdatedAt,
	}
}

func newGlobalStandings(standings []domain.GlobalStanding) []globalStandingResponse {
	out := make([]globalStandingResponse, 0, len(standings))
	for _, st := range standings {
		out = append(out, globalStandingResponse{
			Rank:              st.Rank,
			DisplayName:       st.DisplayName,
			TotalScore:        st.TotalScore,
			QuizzesCompleted:  st.QuizzesCompleted,
			AveragePercentage: st.AveragePercentage,
		})
	}
	return out
}

func newAttemptList(attempts []domain.Attempt) []attemptResponse {
	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, newAttemptResponse(a))
	}
	return out
}
