package http

import (
	"net/http"
	"strconv"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
)

type choiceRequest struct {
	ID        int64  `json:"id"`
	Text      string `json:"choice_text"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

type questionRequest struct {
	QuizID             *int64           `json:"quiz"`
	Text               *string          `json:"question_text"`
	Type               *string          `json:"question_type" validate:"omitempty,oneof=MULTIPLE_CHOICE FILL_BLANK"`
	Points             *int             `json:"points"`
	CorrectBlankAnswer *string          `json:"correct_blank_answer"`
	CaseSensitive      *bool            `json:"case_sensitive"`
	Order              *int             `json:"order"`
	Explanation        *string          `json:"explanation"`
	Choices            *[]choiceRequest `json:"choices"`
}

func (req questionRequest) choices() *[]domain.Choice {
	if req.Choices == nil {
		return nil
	}
	out := make([]domain.Choice, 0, len(*req.Choices))
	for _, c := range *req.Choices {
		out = append(out, domain.Choice{ID: c.ID, Text: c.Text, IsCorrect: c.IsCorrect, Order: c.Order})
	}
	return &out
}

func (req questionRequest) patch() app.QuestionPatch {
	p := app.QuestionPatch{
		QuizID:             req.QuizID,
		Text:               req.Text,
		Points:             req.Points,
		CorrectBlankAnswer: req.CorrectBlankAnswer,
		CaseSensitive:      req.CaseSensitive,
		Order:              req.Order,
		Explanation:        req.Explanation,
		Choices:            req.choices(),
	}
	if req.Type != nil {
		t := domain.QuestionType(*req.Type)
		p.Type = &t
	}
	return p
}

// requireQuestionFields reports the fields a full write must carry.
func (req questionRequest) requireQuestionFields() error {
	v := &domain.ValidationError{}
	if req.QuizID == nil {
		v.Add("quiz", "This field is required.")
	}
	if req.Text == nil {
		v.Add("question_text", "This field is required.")
	}
	return v.OrNil()
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	var quizID *int64
	if raw := r.URL.Query().Get("quiz_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusOK, []questionResponse{})
			return
		}
		quizID = &id
	}
	questions, err := h.catalog.ListQuestions(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, newQuestionResponse(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := req.requireQuestionFields(); err != nil {
		writeServiceError(w, err)
		return
	}
	question := domain.Question{
		QuizID: *req.QuizID,
		Text:   *req.Text,
		Type:   domain.MultipleChoice,
		Points: 1,
	}
	p := req.patch()
	if p.Type != nil {
		question.Type = *p.Type
	}
	if p.Points != nil {
		question.Points = *p.Points
	}
	if p.CorrectBlankAnswer != nil {
		question.CorrectBlankAnswer = *p.CorrectBlankAnswer
	}
	if p.CaseSensitive != nil {
		question.CaseSensitive = *p.CaseSensitive
	}
	if p.Order != nil {
		question.Order = *p.Order
	}
	if p.Explanation != nil {
		question.Explanation = *p.Explanation
	}
	if p.Choices != nil {
		question.Choices = *p.Choices
	}

	created, err := h.catalog.CreateQuestion(r.Context(), question)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newQuestionResponse(created))
}

func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, domain.ErrQuestionNotFound)
		return
	}
	question, err := h.catalog.GetQuestion(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuestionResponse(question))
}

func (h *Handler) replaceQuestion(w http.ResponseWriter, r *http.Request) {
	h.updateQuestion(w, r, true)
}

func (h *Handler) patchQuestion(w http.ResponseWriter, r *http.Request) {
	h.updateQuestion(w, r, false)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request, full bool) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, domain.ErrQuestionNotFound)
		return
	}
	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if full {
		if err := req.requireQuestionFields(); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	question, err := h.catalog.UpdateQuestion(r.Context(), id, req.patch())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuestionResponse(question))
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, domain.ErrQuestionNotFound)
		return
	}
	if err := h.catalog.DeleteQuestion(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
