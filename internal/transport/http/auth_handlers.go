package http

import (
	"net/http"

	"quizboard-service/internal/app"
	"quizboard-service/internal/domain"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, User: session.User})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := h.auth.Signup(r.Context(), app.SignupRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: session.Token, User: session.User})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if user == nil {
		writeServiceError(w, domain.ErrUnauthenticated)
		return
	}
	if err := h.auth.Logout(r.Context(), *user); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if user == nil {
		writeServiceError(w, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
