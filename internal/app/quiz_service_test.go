package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
	"quizboard-service/internal/infra/memory"
)

type fixture struct {
	store       *memory.Store
	catalog     *app.CatalogService
	leaderboard *app.LeaderboardService
	quizzes     *app.QuizService
}

func newFixture() *fixture {
	var mu sync.Mutex
	current := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
	store := memory.NewStoreWithClock(clock)
	leaderboard := app.NewLeaderboardService(store, store, app.LeaderboardOptions{Now: clock})
	return &fixture{
		store:       store,
		catalog:     app.NewCatalogService(store),
		leaderboard: leaderboard,
		quizzes:     app.NewQuizServiceWithClock(store, store, leaderboard, clock),
	}
}

// blankQuiz creates a quiz of n one-point fill-in-the-blank questions whose answer is "yes".
func (f *fixture) blankQuiz(t *testing.T, n int) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	quiz, err := f.catalog.CreateQuiz(ctx, domain.Quiz{Title: fmt.Sprintf("Blanks %d", n), IsActive: true}, nil)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for i := 0; i < n; i++ {
		if _, err := f.catalog.CreateQuestion(ctx, domain.Question{
			QuizID:             quiz.ID,
			Text:               fmt.Sprintf("Q%d {{blank}}", i+1),
			Type:               domain.FillBlank,
			Points:             1,
			Order:              i + 1,
			CorrectBlankAnswer: "yes",
		}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	quiz, err = f.catalog.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	return quiz
}

// answers answers the first `correct` questions right and the rest wrong.
func answers(quiz domain.Quiz, correct int) []domain.Submission {
	out := make([]domain.Submission, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		text := "no"
		if i < correct {
			text = "yes"
		}
		out = append(out, domain.Submission{QuestionID: q.ID, TextAnswer: text})
	}
	return out
}

func TestSubmitScoresAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	quiz, err := f.catalog.CreateQuiz(ctx, domain.Quiz{Title: "Mixed", IsActive: true}, nil)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	mc, err := f.catalog.CreateQuestion(ctx, domain.Question{
		QuizID:  quiz.ID,
		Text:    "2 + 2?",
		Type:    domain.MultipleChoice,
		Points:  2,
		Choices: []domain.Choice{{Text: "4", IsCorrect: true}, {Text: "5"}},
	})
	if err != nil {
		t.Fatalf("create mc: %v", err)
	}
	fb, err := f.catalog.CreateQuestion(ctx, domain.Question{
		QuizID:             quiz.ID,
		Text:               "Sky is {{blank}}",
		Type:               domain.FillBlank,
		Points:             3,
		CorrectBlankAnswer: "blue",
	})
	if err != nil {
		t.Fatalf("create blank: %v", err)
	}

	right := mc.Choices[0].ID
	result, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
		GuestName: "Alice",
		TimeTaken: 30,
		Answers: []domain.Submission{
			{QuestionID: mc.ID, ChoiceID: &right},
			{QuestionID: fb.ID, TextAnswer: "green"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	a := result.Attempt
	if a.Score != 2 || a.TotalPoints != 5 || a.Percentage != 40 {
		t.Fatalf("expected 2/5 = 40%%, got %d/%d = %.2f", a.Score, a.TotalPoints, a.Percentage)
	}
	if !a.Completed || a.CompletedAt == nil || a.ID == 0 {
		t.Fatalf("expected stored completed attempt, got %+v", a)
	}
	if result.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", result.Rank)
	}

	stored, err := f.quizzes.GetAttempt(ctx, a.ID, nil)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if len(stored.Answers) != 2 || !stored.Answers[0].IsCorrect || stored.Answers[1].IsCorrect {
		t.Fatalf("unexpected stored answers %+v", stored.Answers)
	}
}

func TestSubmitRejectsDuplicateAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 2)

	q := quiz.Questions[0].ID
	_, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
		Answers: []domain.Submission{{QuestionID: q, TextAnswer: "yes"}, {QuestionID: q, TextAnswer: "yes"}},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields["answers"]) == 0 {
		t.Fatalf("expected answers validation error, got %v", err)
	}
	attempts, _ := f.quizzes.ListAttempts(ctx, nil)
	if len(attempts) != 0 {
		t.Fatalf("expected nothing stored, got %d attempts", len(attempts))
	}
}

func TestSubmitUnknownOrInactiveQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 1)

	if _, err := f.quizzes.Submit(ctx, 9999, nil, app.QuizSubmission{}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	inactive := false
	if _, err := f.catalog.UpdateQuiz(ctx, quiz.ID, app.QuizPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected inactive quiz to be not found, got %v", err)
	}
}

func TestSubmitEmptyQuizScoresZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 0)

	result, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{TimeTaken: 3})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Attempt.Percentage != 0 || result.Attempt.TotalPoints != 0 {
		t.Fatalf("expected zero percentage, got %+v", result.Attempt)
	}
}

func TestGuestLeaderboardKeepsBest(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 5)

	for _, correct := range []int{4, 3} {
		if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
			GuestName: "Alice",
			TimeTaken: 60,
			Answers:   answers(quiz, correct),
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	lb, err := f.leaderboard.QuizLeaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 {
		t.Fatalf("expected single entry, got %d", len(lb.Entries))
	}
	e := lb.Entries[0]
	if e.BestPercentage != 80 || e.BestScore != 4 || e.AttemptsCount != 2 {
		t.Fatalf("expected best 80%% over 2 attempts, got %+v", e.LeaderboardEntry)
	}
}

func TestConcurrentSubmissionsCountEveryAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 4)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
				GuestName: "Racer",
				TimeTaken: 10 + i,
				Answers:   answers(quiz, i%5),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	lb, err := f.leaderboard.QuizLeaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(lb.Entries))
	}
	e := lb.Entries[0]
	if e.AttemptsCount != n {
		t.Fatalf("expected %d attempts counted, got %d", n, e.AttemptsCount)
	}
	// i = 4 is the fastest of the perfect runs (4, 9, 14, 19).
	if e.BestPercentage != 100 || e.BestTime != 14 {
		t.Fatalf("expected best 100%% in 14s, got %.2f in %ds", e.BestPercentage, e.BestTime)
	}
}

func TestRebuildMatchesIncrementalLeaderboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 4)

	runs := []struct {
		guest   string
		correct int
		seconds int
	}{
		{"Alice", 2, 50}, {"Bob", 4, 90}, {"Alice", 4, 70}, {"Carol", 1, 5}, {"Bob", 4, 80}, {"Alice", 3, 10},
	}
	for _, r := range runs {
		if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
			GuestName: r.guest,
			TimeTaken: r.seconds,
			Answers:   answers(quiz, r.correct),
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	before, err := f.leaderboard.QuizLeaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	count, err := f.leaderboard.Rebuild(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rebuilt entries, got %d", count)
	}
	after, err := f.leaderboard.QuizLeaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	if len(before.Entries) != len(after.Entries) {
		t.Fatalf("entry count changed: %d vs %d", len(before.Entries), len(after.Entries))
	}
	for i := range before.Entries {
		b, a := before.Entries[i], after.Entries[i]
		if b.DisplayName() != a.DisplayName() || b.BestScore != a.BestScore || b.BestPercentage != a.BestPercentage ||
			b.BestTime != a.BestTime || b.AttemptsCount != a.AttemptsCount || b.Rank != a.Rank {
			t.Fatalf("entry %d differs after rebuild: %+v vs %+v", i, b, a)
		}
	}
	if top := after.Entries[0]; top.DisplayName() != "Alice" || top.BestTime != 70 {
		t.Fatalf("expected Alice's 70s perfect run on top, got %+v", top)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 2)

	ch, cancel, err := f.leaderboard.Subscribe(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
		GuestName: "Alice",
		Answers:   answers(quiz, 1),
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	select {
	case update := <-ch:
		if len(update.Entries) != 1 || update.Entries[0].BestScore != 1 {
			t.Fatalf("expected updated score 1, got %+v", update.Entries)
		}
	case <-time.After(time.Second):
		t.Fatalf("no leaderboard update received")
	}
}

func TestAttemptsAreScopedToUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 1)

	alice := &domain.User{Username: "alice", IsActive: true}
	bob := &domain.User{Username: "bob", IsActive: true}
	for _, u := range []*domain.User{alice, bob} {
		if err := f.store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	res, err := f.quizzes.Submit(ctx, quiz.ID, alice, app.QuizSubmission{Answers: answers(quiz, 1)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Attempt.DisplayName() != "alice" {
		t.Fatalf("expected username as display name, got %q", res.Attempt.DisplayName())
	}
	if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{GuestName: "Guest"}); err != nil {
		t.Fatalf("guest submit: %v", err)
	}

	own, err := f.quizzes.ListAttempts(ctx, alice)
	if err != nil || len(own) != 1 {
		t.Fatalf("expected alice to see 1 attempt, got %d (%v)", len(own), err)
	}
	all, err := f.quizzes.ListAttempts(ctx, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected anonymous listing of 2 attempts, got %d (%v)", len(all), err)
	}
	if _, err := f.quizzes.GetAttempt(ctx, res.Attempt.ID, bob); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected bob not to see alice's attempt, got %v", err)
	}

	stats, err := f.quizzes.Stats(ctx, alice)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAttempts != 1 || stats.TotalScore != 1 || stats.AveragePercentage != 100 || stats.QuizzesCompleted != 1 {
		t.Fatalf("unexpected stats %+v", stats.AttemptTotals)
	}
	if _, err := f.quizzes.Stats(ctx, nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated stats error, got %v", err)
	}
}

func TestGlobalLeaderboardAggregatesIdentities(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	first := f.blankQuiz(t, 2)
	second := f.blankQuiz(t, 4)

	submit := func(quiz domain.Quiz, guest string, correct int) {
		t.Helper()
		if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{GuestName: guest, Answers: answers(quiz, correct)}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	submit(first, "Alice", 2)
	submit(second, "Alice", 1)
	submit(second, "Bob", 2)
	submit(first, "", 1)

	standings, err := f.leaderboard.GlobalLeaderboard(ctx)
	if err != nil {
		t.Fatalf("global leaderboard: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 identities, got %+v", standings)
	}
	alice := standings[0]
	if alice.DisplayName != "Alice" || alice.TotalScore != 3 || alice.QuizzesCompleted != 2 || alice.AveragePercentage != 62.5 {
		t.Fatalf("unexpected leader %+v", alice)
	}
	if standings[1].DisplayName != "Bob" || standings[2].DisplayName != domain.AnonymousName {
		t.Fatalf("unexpected order %+v", standings)
	}
	for i, st := range standings {
		if st.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, st.Rank)
		}
	}
}

func TestGuestNameIsTrimmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 1)

	for _, name := range []string{"Alice", " Alice ", "   "} {
		res, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{GuestName: name, Answers: answers(quiz, 1)})
		if err != nil {
			t.Fatalf("submit %q: %v", name, err)
		}
		if res.Attempt.GuestName != strings.TrimSpace(name) {
			t.Fatalf("expected stored guest name %q, got %q", strings.TrimSpace(name), res.Attempt.GuestName)
		}
	}

	lb, err := f.leaderboard.QuizLeaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 2 {
		t.Fatalf("expected two identities, got %+v", lb.Entries)
	}
	if lb.Entries[0].DisplayName() != "Alice" || lb.Entries[0].AttemptsCount != 2 {
		t.Fatalf("expected Alice with 2 attempts first, got %+v", lb.Entries[0].LeaderboardEntry)
	}
	if lb.Entries[1].DisplayName() != domain.AnonymousName {
		t.Fatalf("expected whitespace name to fall into %s, got %q", domain.AnonymousName, lb.Entries[1].DisplayName())
	}
}

func TestFeedSnapshotsArriveInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz := f.blankQuiz(t, 1)

	ch, cancel, err := f.leaderboard.Subscribe(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch // initial snapshot

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.quizzes.Submit(ctx, quiz.ID, nil, app.QuizSubmission{
				GuestName: fmt.Sprintf("guest-%02d", i),
				Answers:   answers(quiz, i%2),
			}); err != nil {
				t.Errorf("submit: %v", err)
			}
		}(i)
	}

	seen := 0
	deadline := time.After(5 * time.Second)
	for seen < n {
		select {
		case update := <-ch:
			if len(update.Entries) < seen {
				t.Fatalf("snapshot went backwards: %d entries after %d", len(update.Entries), seen)
			}
			seen = len(update.Entries)
		case <-deadline:
			t.Fatalf("saw %d of %d entries before timeout", seen, n)
		}
	}
	wg.Wait()
}
