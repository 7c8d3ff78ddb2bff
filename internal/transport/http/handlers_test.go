package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
	"quizboard-service/internal/infra/memory"
)

type testEnv struct {
	server    *httptest.Server
	store     *memory.Store
	services  Services
	quizID    int64
	mcID      int64
	rightID   int64
	wrongID   int64
	blankID   int64
	otherQuiz int64
	otherQ    int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	leaderboard := app.NewLeaderboardService(store, store, app.LeaderboardOptions{})
	services := Services{
		Catalog:     app.NewCatalogService(store),
		Quizzes:     app.NewQuizService(store, store, leaderboard),
		Leaderboard: leaderboard,
		Auth:        app.NewAuthServiceWithCost(store, memory.NewTokenStore(), bcrypt.MinCost),
	}
	env := &testEnv{store: store, services: services}
	env.seed(t)
	env.server = httptest.NewServer(NewRouter(services, RouterOptions{AccessLog: io.Discard}))
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	catalog := e.services.Catalog

	quiz, err := catalog.CreateQuiz(ctx, domain.Quiz{Title: "Capitals", IsActive: true}, nil)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	mc, err := catalog.CreateQuestion(ctx, domain.Question{
		QuizID: quiz.ID,
		Text:   "Capital of Italy?",
		Type:   domain.MultipleChoice,
		Points: 2,
		Order:  1,
		Choices: []domain.Choice{
			{Text: "Milan", Order: 1},
			{Text: "Rome", IsCorrect: true, Order: 2},
		},
	})
	if err != nil {
		t.Fatalf("create mc question: %v", err)
	}
	blank, err := catalog.CreateQuestion(ctx, domain.Question{
		QuizID:             quiz.ID,
		Text:               "The capital of France is {{blank}}.",
		Type:               domain.FillBlank,
		Points:             3,
		Order:              2,
		CorrectBlankAnswer: "Paris",
		Explanation:        "Paris has been the capital since 987.",
	})
	if err != nil {
		t.Fatalf("create blank question: %v", err)
	}

	other, err := catalog.CreateQuiz(ctx, domain.Quiz{Title: "Other", IsActive: true}, nil)
	if err != nil {
		t.Fatalf("create other quiz: %v", err)
	}
	otherQ, err := catalog.CreateQuestion(ctx, domain.Question{
		QuizID:             other.ID,
		Text:               "2 + 2 = {{blank}}",
		Type:               domain.FillBlank,
		Points:             1,
		CorrectBlankAnswer: "4",
	})
	if err != nil {
		t.Fatalf("create other question: %v", err)
	}

	e.quizID = quiz.ID
	e.mcID = mc.ID
	e.wrongID = mc.Choices[0].ID
	e.rightID = mc.Choices[1].ID
	e.blankID = blank.ID
	e.otherQuiz = other.ID
	e.otherQ = otherQ.ID
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

func (e *testEnv) submitPath() string {
	return fmt.Sprintf("/quizzes/%d/submit/", e.quizID)
}

func TestSubmitGuestAttemptIsGraded(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
		"guest_name": "Alice",
		"time_taken": 42,
		"answers": []map[string]any{
			{"question_id": env.mcID, "choice_id": env.rightID},
			{"question_id": env.blankID, "text_answer": "london"},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	attempt := decode[attemptDetailResponse](t, body)
	if attempt.Score != 2 || attempt.TotalPoints != 5 || attempt.Percentage != 40 {
		t.Fatalf("unexpected result %d/%d %.2f", attempt.Score, attempt.TotalPoints, attempt.Percentage)
	}
	if attempt.DisplayName != "Alice" || attempt.Rank != 1 || !attempt.Completed {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if len(attempt.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(attempt.Answers))
	}
	first := attempt.Answers[0]
	if first.SelectedChoice == nil || !first.SelectedChoice.IsCorrect || !first.IsCorrect {
		t.Fatalf("expected correct selected choice, got %+v", first)
	}
	second := attempt.Answers[1]
	if second.IsCorrect || second.Question.CorrectBlankAnswer != "Paris" || second.Question.Explanation == "" {
		t.Fatalf("expected graded blank with answer and explanation, got %+v", second)
	}
}

func TestSubmitRejectsQuestionFromAnotherQuiz(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
		"time_taken": 5,
		"answers":    []map[string]any{{"question_id": env.otherQ, "text_answer": "4"}},
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", status, body)
	}
}

func TestSubmitRejectsChoiceOfAnotherQuestion(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
		"time_taken": 5,
		"answers":    []map[string]any{{"question_id": env.mcID, "choice_id": env.blankID}},
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", status, body)
	}
}

func TestSubmitValidatesPayload(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
		"answers": []map[string]any{{"text_answer": "x"}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
	fields := decode[map[string][]string](t, body)
	if _, ok := fields["time_taken"]; !ok {
		t.Fatalf("expected time_taken error, got %v", fields)
	}
	if _, ok := fields["answers[0].question_id"]; !ok {
		t.Fatalf("expected question_id error, got %v", fields)
	}
}

func TestSubmitRejectsOverlongTextAnswer(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
		"time_taken": 5,
		"answers":    []map[string]any{{"question_id": env.blankID, "text_answer": strings.Repeat("a", 501)}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
	fields := decode[map[string][]string](t, body)
	if _, ok := fields["answers[0].text_answer"]; !ok {
		t.Fatalf("expected text_answer error, got %v", fields)
	}
}

func TestSubmitTrimsGuestName(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"Alice", " Alice ", "   "} {
		status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
			"guest_name": name,
			"time_taken": 5,
			"answers":    []map[string]any{{"question_id": env.blankID, "text_answer": "paris"}},
		})
		if status != http.StatusCreated {
			t.Fatalf("submit %q: %d %s", name, status, body)
		}
	}

	_, body := env.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d/leaderboard/", env.quizID), "", nil)
	entries := decode[[]leaderboardEntryResponse](t, body)
	if len(entries) != 2 {
		t.Fatalf("expected Alice and Anonymous entries, got %+v", entries)
	}
	names := map[string]int{}
	for _, e := range entries {
		names[e.DisplayName] = e.AttemptsCount
	}
	if names["Alice"] != 2 || names[domain.AnonymousName] != 1 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestSubmitUnknownQuizIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodPost, "/quizzes/9999/submit/", "", map[string]any{
		"time_taken": 1,
		"answers":    []map[string]any{},
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestQuizDetailHidesAnswers(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d/", env.quizID), "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if bytes.Contains(body, []byte("is_correct")) || bytes.Contains(body, []byte("correct_blank_answer")) {
		t.Fatalf("quiz detail leaks answers: %s", body)
	}
	quiz := decode[quizDetailResponse](t, body)
	if quiz.QuestionCount != 2 || quiz.TotalPoints != 5 {
		t.Fatalf("unexpected counts %+v", quiz)
	}
	blank := quiz.Questions[1]
	if blank.DisplayText != "The capital of France is _____." {
		t.Fatalf("unexpected display text %q", blank.DisplayText)
	}
	if len(blank.BlankPositions) != 1 || blank.BlankPositions[0] != [2]int{25, 34} {
		t.Fatalf("unexpected blank positions %v", blank.BlankPositions)
	}
}

func TestInactiveQuizIsHidden(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPatch, fmt.Sprintf("/quizzes/%d/", env.otherQuiz), "", map[string]any{"is_active": false})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	status, _ = env.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d/", env.otherQuiz), "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for inactive quiz, got %d", status)
	}
	_, body = env.do(t, http.MethodGet, "/quizzes/", "", nil)
	list := decode[[]quizListResponse](t, body)
	if len(list) != 1 || list[0].ID != env.quizID {
		t.Fatalf("expected only the active quiz, got %+v", list)
	}
}

func TestCreateQuestionChecksChoices(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/questions/", "", map[string]any{
		"quiz":          env.quizID,
		"question_text": "Pick one",
		"question_type": "MULTIPLE_CHOICE",
		"choices":       []map[string]any{{"choice_text": "only", "is_correct": true}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
	fields := decode[map[string][]string](t, body)
	if len(fields["choices"]) == 0 {
		t.Fatalf("expected choices error, got %v", fields)
	}

	status, body = env.do(t, http.MethodPost, "/questions/", "", map[string]any{
		"quiz":                 9999,
		"question_text":        "Orphan {{blank}}",
		"question_type":        "FILL_BLANK",
		"correct_blank_answer": "x",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown quiz, got %d: %s", status, body)
	}
}

func TestPatchQuestionKeepsChoiceIDs(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPatch, fmt.Sprintf("/questions/%d/", env.mcID), "", map[string]any{
		"choices": []map[string]any{
			{"id": env.rightID, "choice_text": "Roma", "is_correct": true, "order": 1},
			{"choice_text": "Turin", "order": 2},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	q := decode[questionResponse](t, body)
	if len(q.Choices) != 2 || q.Choices[0].ID != env.rightID || q.Choices[0].Text != "Roma" {
		t.Fatalf("unexpected choices %+v", q.Choices)
	}
	if q.Choices[1].ID == env.wrongID {
		t.Fatalf("dropped choice should not be reused")
	}
}

func TestLeaderboardKeepsBestAttempt(t *testing.T) {
	env := newTestEnv(t)
	submit := func(choice int64, seconds int) {
		status, body := env.do(t, http.MethodPost, env.submitPath(), "", map[string]any{
			"guest_name": "Alice",
			"time_taken": seconds,
			"answers": []map[string]any{
				{"question_id": env.mcID, "choice_id": choice},
				{"question_id": env.blankID, "text_answer": " paris "},
			},
		})
		if status != http.StatusCreated {
			t.Fatalf("submit: %d %s", status, body)
		}
	}
	submit(env.rightID, 30)
	submit(env.wrongID, 10)

	status, body := env.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d/leaderboard/", env.quizID), "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	entries := decode[[]leaderboardEntryResponse](t, body)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.BestPercentage != 100 || e.BestTime != 30 || e.AttemptsCount != 2 || e.Rank != 1 {
		t.Fatalf("unexpected entry %+v", e)
	}

	_, body = env.do(t, http.MethodGet, "/leaderboard/", "", nil)
	standings := decode[[]globalStandingResponse](t, body)
	if len(standings) != 1 || standings[0].DisplayName != "Alice" || standings[0].TotalScore != 5 {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestAuthLifecycle(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/auth/signup/", "", map[string]any{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "correct-horse-42",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, body)
	}
	session := decode[sessionResponse](t, body)
	if len(session.Token) != 32 || session.User.Username != "carol" {
		t.Fatalf("unexpected session %+v", session)
	}

	status, body = env.do(t, http.MethodPost, "/auth/login/", "", map[string]any{
		"username": "carol",
		"password": "correct-horse-42",
	})
	if status != http.StatusOK {
		t.Fatalf("login: %d %s", status, body)
	}
	if login := decode[sessionResponse](t, body); login.Token != session.Token {
		t.Fatalf("expected login to reuse the token")
	}

	status, _ = env.do(t, http.MethodGet, "/auth/user/", session.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("current user: %d", status)
	}

	status, _ = env.do(t, http.MethodPost, env.submitPath(), session.Token, map[string]any{
		"time_taken": 12,
		"answers":    []map[string]any{{"question_id": env.mcID, "choice_id": env.rightID}},
	})
	if status != http.StatusCreated {
		t.Fatalf("authenticated submit: %d", status)
	}
	status, body = env.do(t, http.MethodGet, "/stats/", session.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("stats: %d %s", status, body)
	}
	stats := decode[statsResponse](t, body)
	if stats.TotalAttempts != 1 || stats.TotalScore != 2 || stats.QuizzesCompleted != 1 || len(stats.RecentAttempts) != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	status, _ = env.do(t, http.MethodPost, "/auth/logout/", session.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	status, _ = env.do(t, http.MethodGet, "/auth/user/", session.Token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", status)
	}
	status, _ = env.do(t, http.MethodGet, "/quizzes/", session.Token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected invalid token to be rejected on public routes, got %d", status)
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/auth/login/", "", map[string]any{
		"username": "nobody",
		"password": "whatever-pass",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if got := decode[errorBody](t, body); got.Error != "Invalid username or password" {
		t.Fatalf("unexpected error %q", got.Error)
	}

	status, body = env.do(t, http.MethodPost, "/auth/signup/", "", map[string]any{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "dave-secret-99",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, body)
	}
	session := decode[sessionResponse](t, body)
	if err := env.store.SetUserActive(session.User.ID, false); err != nil {
		t.Fatalf("disable user: %v", err)
	}
	status, body = env.do(t, http.MethodPost, "/auth/login/", "", map[string]any{
		"username": "dave",
		"password": "dave-secret-99",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for disabled account, got %d", status)
	}
	if got := decode[errorBody](t, body); got.Error != "Account is disabled" {
		t.Fatalf("unexpected error %q", got.Error)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/auth/signup/", "", map[string]any{
		"username": "erin",
		"email":    "erin@example.com",
		"password": "erin-password-1",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/auth/signup/", "", map[string]any{
		"username": "ERIN",
		"email":    "Erin@Example.com",
		"password": "12345678",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	fields := decode[map[string][]string](t, body)
	for _, field := range []string{"username", "email", "password"} {
		if len(fields[field]) == 0 {
			t.Fatalf("expected %s error, got %v", field, fields)
		}
	}

	status, body = env.do(t, http.MethodPost, "/auth/signup/", "", map[string]any{
		"username": "frank",
		"email":    "not-an-email",
		"password": "frank-pass-77",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d: %s", status, body)
	}
}

func TestStatsRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodGet, "/stats/", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestTokenFromHeader(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"", "", false},
		{"Token abc", "abc", true},
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic dXNlcg==", "", false},
		{"Token", "", true},
	}
	for _, tc := range cases {
		token, ok := tokenFromHeader(tc.header)
		if token != tc.token || ok != tc.ok {
			t.Fatalf("%q: got (%q, %v), want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}
