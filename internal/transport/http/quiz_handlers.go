package http

import (
	"net/http"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
)

type quizRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	TimeLimit   *int    `json:"time_limit" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active"`
}

func (req quizRequest) patch() app.QuizPatch {
	return app.QuizPatch{
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
		IsActive:    req.IsActive,
	}
}

type answerRequest struct {
	QuestionID *int64 `json:"question_id" validate:"required"`
	ChoiceID   *int64 `json:"choice_id"`
	TextAnswer string `json:"text_answer" validate:"max=500"`
}

type submitRequest struct {
	GuestName string          `json:"guest_name" validate:"max=100"`
	TimeTaken *int            `json:"time_taken" validate:"required,min=0"`
	Answers   []answerRequest `json:"answers" validate:"required,dive"`
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]quizListResponse, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, newQuizListResponse(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	quiz := domain.Quiz{IsActive: true}
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}
	created, err := h.catalog.CreateQuiz(r.Context(), quiz, requestUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newQuizDetailResponse(created))
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	quiz, err := h.catalog.GetQuiz(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizDetailResponse(quiz))
}

func (h *Handler) replaceQuiz(w http.ResponseWriter, r *http.Request) {
	h.updateQuiz(w, r, true)
}

func (h *Handler) patchQuiz(w http.ResponseWriter, r *http.Request) {
	h.updateQuiz(w, r, false)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request, full bool) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req quizRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if full && req.Title == nil {
		writeServiceError(w, domain.NewValidationError("title", "This field is required."))
		return
	}
	quiz, err := h.catalog.UpdateQuiz(r.Context(), id, req.patch())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizDetailResponse(quiz))
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.catalog.DeleteQuiz(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// An unknown quiz is reported before the payload is looked at.
	if _, err := h.catalog.GetQuiz(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	submission := app.QuizSubmission{
		GuestName: req.GuestName,
		TimeTaken: *req.TimeTaken,
		Answers:   make([]domain.Submission, 0, len(req.Answers)),
	}
	for _, a := range req.Answers {
		submission.Answers = append(submission.Answers, domain.Submission{
			QuestionID: *a.QuestionID,
			ChoiceID:   a.ChoiceID,
			TextAnswer: a.TextAnswer,
		})
	}

	result, err := h.quizzes.Submit(r.Context(), id, requestUser(r), submission)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAttemptDetailResponse(result.Attempt, result.Rank))
}

func (h *Handler) quizLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := h.catalog.GetQuiz(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	lb, err := h.leaderboard.QuizLeaderboard(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLeaderboardEntries(lb.Entries))
}

func (h *Handler) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboard.GlobalLeaderboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGlobalStandings(standings))
}
