package domain

import (
	"math"
	"regexp"
	"strings"
)

// BlankMarker is the placeholder for free-text input inside question text.
const BlankMarker = "{{blank}}"

const blankDisplay = "_____"

var blankPattern = regexp.MustCompile(regexp.QuoteMeta(BlankMarker))

// DisplayText returns the question text with every blank marker rendered as underscores.
func (q Question) DisplayText() string {
	return blankPattern.ReplaceAllString(q.Text, blankDisplay)
}

// BlankPositions returns the [start, end) byte offsets of each blank marker.
func (q Question) BlankPositions() [][2]int {
	matches := blankPattern.FindAllStringIndex(q.Text, -1)
	positions := make([][2]int, 0, len(matches))
	for _, m := range matches {
		positions = append(positions, [2]int{m[0], m[1]})
	}
	return positions
}

// Submission is the raw response to one question.
type Submission struct {
	QuestionID int64
	ChoiceID   *int64
	TextAnswer string
}

// Grade reports whether the submission answers the question correctly.
// Choice membership must be checked by the caller; an unknown choice grades incorrect.
func Grade(q Question, s Submission) bool {
	switch q.Type {
	case MultipleChoice:
		return gradeMultipleChoice(q, s.ChoiceID)
	case FillBlank:
		return gradeFillBlank(q, s.TextAnswer)
	default:
		return false
	}
}

func gradeMultipleChoice(q Question, choiceID *int64) bool {
	if choiceID == nil {
		return false
	}
	choice, ok := q.Choice(*choiceID)
	return ok && choice.IsCorrect
}

func gradeFillBlank(q Question, text string) bool {
	if q.CorrectBlankAnswer == "" {
		return false
	}
	given := strings.TrimSpace(text)
	for _, candidate := range strings.Split(q.CorrectBlankAnswer, "|") {
		candidate = strings.TrimSpace(candidate)
		if q.CaseSensitive {
			if given == candidate {
				return true
			}
			continue
		}
		if strings.EqualFold(given, candidate) {
			return true
		}
	}
	return false
}

// Percentage returns score/total*100 rounded to two decimals, or 0 when total is 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(score) / float64(total) * 100)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
