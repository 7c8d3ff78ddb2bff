package http

import (
	"net/http"

	"quizboard-service/internal/domain"
)

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizzes.ListAttempts(r.Context(), requestUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttemptList(attempts))
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, domain.ErrAttemptNotFound)
		return
	}
	attempt, err := h.quizzes.GetAttempt(r.Context(), id, requestUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttemptDetailResponse(attempt, 0))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.quizzes.Stats(r.Context(), requestUser(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalAttempts:     stats.TotalAttempts,
		TotalScore:        stats.TotalScore,
		AveragePercentage: stats.AveragePercentage,
		QuizzesCompleted:  stats.QuizzesCompleted,
		RecentAttempts:    newAttemptList(stats.RecentAttempts),
	})
}
