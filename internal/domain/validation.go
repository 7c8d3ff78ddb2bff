package domain

import "strings"

const (
	maxTitleLength       = 255
	maxBlankAnswerLength = 255
	maxChoiceTextLength  = 500
	minPoints            = 1
	maxPoints            = 100
)

// Validate checks the quiz fields a client may write.
func (q Quiz) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(q.Title) == "" {
		v.Add("title", "This field is required.")
	} else if len(q.Title) > maxTitleLength {
		v.Add("title", "Ensure this field has no more than 255 characters.")
	}
	if q.TimeLimit < 0 {
		v.Add("time_limit", "Ensure this value is greater than or equal to 0.")
	}
	return v.OrNil()
}

// Validate checks the per-type invariants of a question and its choices.
func (q Question) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(q.Text) == "" {
		v.Add("question_text", "This field is required.")
	}
	if q.Points < minPoints || q.Points > maxPoints {
		v.Add("points", "Ensure this value is between 1 and 100.")
	}
	if len(q.CorrectBlankAnswer) > maxBlankAnswerLength {
		v.Add("correct_blank_answer", "Ensure this field has no more than 255 characters.")
	}
	for _, choice := range q.Choices {
		if strings.TrimSpace(choice.Text) == "" {
			v.Add("choices", "Choice text is required.")
			break
		}
		if len(choice.Text) > maxChoiceTextLength {
			v.Add("choices", "Ensure choice text has no more than 500 characters.")
			break
		}
	}

	switch q.Type {
	case FillBlank:
		if strings.TrimSpace(q.CorrectBlankAnswer) == "" {
			v.Add("correct_blank_answer", "Fill-in-the-blank questions require a correct answer.")
		}
	case MultipleChoice:
		if len(q.Choices) < 2 {
			v.Add("choices", "Multiple choice questions require at least 2 choices.")
		}
		correct := 0
		for _, choice := range q.Choices {
			if choice.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			v.Add("choices", "Mark at least one choice as correct.")
		}
	default:
		v.Add("question_type", `"`+string(q.Type)+`" is not a valid choice.`)
	}
	return v.OrNil()
}
