package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrQuizNotFound indicates the quiz does not exist or is inactive.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is unknown or belongs to another quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrChoiceNotFound indicates a choice ID is unknown or belongs to another question.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrAttemptNotFound indicates the attempt is unknown or not visible to the caller.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrUserNotFound indicates the user account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for a bad username/password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountDisabled is returned when an inactive user logs in or presents a token.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrUnauthenticated is returned when a token is missing, unknown or revoked.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrLeaderboardConflict is returned when a leaderboard upsert keeps losing races.
	ErrLeaderboardConflict = errors.New("leaderboard entry changed concurrently")
)

// ValidationError carries field-level messages for a rejected payload.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError builds an error with a single field message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message for field.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Empty reports whether no message was recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns v as an error, or nil when nothing was recorded.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
