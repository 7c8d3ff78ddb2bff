package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"quizboard-service/internal/domain"
)

const recentAttemptsLimit = 5

// QuizSubmission is a full set of answers for one quiz.
type QuizSubmission struct {
	GuestName string
	TimeTaken int
	Answers   []domain.Submission
}

// SubmitResult is the graded, persisted attempt plus the submitter's leaderboard rank.
type SubmitResult struct {
	Attempt domain.Attempt
	Rank    int
}

// QuizService contains the attempt use cases: submit, browse, stats.
type QuizService struct {
	quizzes     *sharedLoader
	attempts    AttemptRepository
	leaderboard *LeaderboardService
	now         func() time.Time
}

func NewQuizService(quizzes QuizLoader, attempts AttemptRepository, leaderboard *LeaderboardService) *QuizService {
	return NewQuizServiceWithClock(quizzes, attempts, leaderboard, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(quizzes QuizLoader, attempts AttemptRepository, leaderboard *LeaderboardService, now func() time.Time) *QuizService {
	return &QuizService{
		quizzes:     newSharedLoader(quizzes),
		attempts:    attempts,
		leaderboard: leaderboard,
		now:         now,
	}
}

// Submit grades every answer, stores the completed attempt and updates the leaderboard.
func (s *QuizService) Submit(ctx context.Context, quizID int64, user *domain.User, submission QuizSubmission) (SubmitResult, error) {
	quiz, err := s.quizzes.LoadQuiz(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !quiz.IsActive {
		return SubmitResult{}, domain.ErrQuizNotFound
	}
	if submission.TimeTaken < 0 {
		return SubmitResult{}, domain.NewValidationError("time_taken", "Ensure this value is greater than or equal to 0.")
	}

	now := s.now()
	answers, score, err := gradeSubmission(quiz, submission.Answers, now)
	if err != nil {
		return SubmitResult{}, err
	}

	total := quiz.TotalPoints()
	completedAt := now
	attempt := domain.Attempt{
		QuizID:      quiz.ID,
		Quiz:        &quiz,
		Score:       score,
		TotalPoints: total,
		Percentage:  domain.Percentage(score, total),
		TimeTaken:   submission.TimeTaken,
		Completed:   true,
		StartedAt:   now,
		CompletedAt: &completedAt,
		Answers:     answers,
	}
	if user != nil {
		uid := user.ID
		attempt.UserID = &uid
		attempt.Username = user.Username
	} else {
		attempt.GuestName = strings.TrimSpace(submission.GuestName)
	}

	if err := s.attempts.CreateAttempt(ctx, &attempt); err != nil {
		return SubmitResult{}, fmt.Errorf("store attempt: %w", err)
	}

	rank, err := s.leaderboard.RecordAttempt(ctx, attempt)
	if err != nil {
		// The attempt is the source of truth; a rebuild recovers the entry.
		log.Printf("leaderboard update failed for attempt %d: %v", attempt.ID, err)
	}
	return SubmitResult{Attempt: attempt, Rank: rank}, nil
}

// gradeSubmission resolves every response against the quiz and grades it.
func gradeSubmission(quiz domain.Quiz, responses []domain.Submission, now time.Time) ([]domain.Answer, int, error) {
	seen := make(map[int64]struct{}, len(responses))
	answers := make([]domain.Answer, 0, len(responses))
	score := 0
	for _, response := range responses {
		question, ok := quiz.Question(response.QuestionID)
		if !ok {
			return nil, 0, domain.ErrQuestionNotFound
		}
		if _, dup := seen[question.ID]; dup {
			return nil, 0, domain.NewValidationError("answers", fmt.Sprintf("Question %d is answered more than once.", question.ID))
		}
		seen[question.ID] = struct{}{}

		q := question
		answer := domain.Answer{
			QuestionID: question.ID,
			Question:   &q,
			AnsweredAt: now,
		}
		switch question.Type {
		case domain.MultipleChoice:
			if response.ChoiceID != nil {
				if _, ok := question.Choice(*response.ChoiceID); !ok {
					return nil, 0, domain.ErrChoiceNotFound
				}
				choiceID := *response.ChoiceID
				answer.SelectedChoiceID = &choiceID
			}
		case domain.FillBlank:
			answer.TextAnswer = response.TextAnswer
		}
		answer.IsCorrect = domain.Grade(question, domain.Submission{
			QuestionID: question.ID,
			ChoiceID:   answer.SelectedChoiceID,
			TextAnswer: answer.TextAnswer,
		})
		if answer.IsCorrect {
			score += question.Points
		}
		answers = append(answers, answer)
	}
	return answers, score, nil
}

// ListAttempts returns completed attempts, restricted to the user's own when authenticated.
func (s *QuizService) ListAttempts(ctx context.Context, user *domain.User) ([]domain.Attempt, error) {
	return s.attempts.ListAttempts(ctx, attemptFilterFor(user))
}

// GetAttempt returns a completed attempt visible to the caller.
func (s *QuizService) GetAttempt(ctx context.Context, id int64, user *domain.User) (domain.Attempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, id)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !attempt.Completed {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if user != nil && (attempt.UserID == nil || *attempt.UserID != user.ID) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Stats aggregates the completed attempts of an authenticated user.
func (s *QuizService) Stats(ctx context.Context, user *domain.User) (domain.UserStats, error) {
	if user == nil {
		return domain.UserStats{}, domain.ErrUnauthenticated
	}
	totals, err := s.attempts.AttemptTotals(ctx, user.ID)
	if err != nil {
		return domain.UserStats{}, err
	}
	totals.AveragePercentage = domain.Round2(totals.AveragePercentage)

	filter := attemptFilterFor(user)
	filter.Limit = recentAttemptsLimit
	recent, err := s.attempts.ListAttempts(ctx, filter)
	if err != nil {
		return domain.UserStats{}, err
	}
	return domain.UserStats{AttemptTotals: totals, RecentAttempts: recent}, nil
}

func attemptFilterFor(user *domain.User) domain.AttemptFilter {
	if user == nil {
		return domain.AttemptFilter{}
	}
	uid := user.ID
	return domain.AttemptFilter{UserID: &uid}
}
