package app

import (
	"context"
	"fmt"
	"log"

	"quizboard-service/internal/domain"
)

func choices(correct int, texts ...string) []domain.Choice {
	out := make([]domain.Choice, 0, len(texts))
	for i, text := range texts {
		out = append(out, domain.Choice{Text: text, IsCorrect: i == correct, Order: i + 1})
	}
	return out
}

func blank(order, points int, text, answer string, caseSensitive bool, explanation string) domain.Question {
	return domain.Question{
		Text:               text,
		Type:               domain.FillBlank,
		Points:             points,
		CorrectBlankAnswer: answer,
		CaseSensitive:      caseSensitive,
		Order:              order,
		Explanation:        explanation,
	}
}

func multipleChoice(order, points int, text, explanation string, options []domain.Choice) domain.Question {
	return domain.Question{
		Text:        text,
		Type:        domain.MultipleChoice,
		Points:      points,
		Order:       order,
		Explanation: explanation,
		Choices:     options,
	}
}

// SampleQuizzes returns the demo catalog loaded by the seed command.
func SampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			Title:       "World Geography Challenge",
			Description: "Test your knowledge of world geography with fill-in-the-blank and multiple choice questions!",
			TimeLimit:   10,
			IsActive:    true,
			Questions: []domain.Question{
				blank(1, 2, "The capital of France is {{blank}}.", "Paris", false,
					"Paris has been the capital of France since the 10th century."),
				blank(2, 2, "The longest river in the world is the {{blank}} River.", "Nile|Amazon", false,
					"The Nile and Amazon compete for the title depending on measurement methods."),
				multipleChoice(3, 1, "Which continent has the most countries?",
					"Africa has 54 recognized countries, making it the continent with the most.",
					choices(1, "Asia", "Africa", "Europe", "South America")),
				multipleChoice(4, 1, "What is the smallest country in the world?",
					"Vatican City is only about 0.44 square kilometers.",
					choices(1, "Monaco", "Vatican City", "San Marino", "Liechtenstein")),
				blank(5, 2, "Mt. Everest is located in the {{blank}} mountain range.", "Himalayas|Himalaya", false,
					"The Himalayas contain many of the world's highest peaks."),
			},
		},
		{
			Title:       "Programming Fundamentals",
			Description: "Test your programming knowledge across multiple languages and concepts!",
			TimeLimit:   15,
			IsActive:    true,
			Questions: []domain.Question{
				blank(1, 2, "In Python, the keyword to define a function is {{blank}}.", "def", true,
					`Python uses "def" followed by the function name and parentheses.`),
				multipleChoice(2, 1, "Which data structure uses LIFO (Last In, First Out)?",
					"A stack removes the most recently added element first.",
					choices(1, "Queue", "Stack", "Linked List", "Tree")),
				multipleChoice(3, 1, "What does HTML stand for?",
					"HTML stands for HyperText Markup Language.",
					choices(0, "Hyper Text Markup Language", "High Tech Modern Language",
						"Hyper Transfer Markup Language", "Home Tool Markup Language")),
				blank(4, 3, "The time complexity of binary search is O({{blank}}).", "log n|log(n)|logn", false,
					"Binary search halves the search space with each comparison."),
				multipleChoice(5, 1, "Which of these is NOT a JavaScript framework?",
					"Django is a Python web framework.",
					choices(3, "React", "Vue", "Angular", "Django")),
			},
		},
		{
			Title:       "Science Trivia",
			Description: "From biology to physics - test your scientific knowledge!",
			TimeLimit:   12,
			IsActive:    true,
			Questions: []domain.Question{
				blank(1, 1, "Water is made up of hydrogen and {{blank}}.", "oxygen", false,
					"Water (H2O) consists of two hydrogen atoms and one oxygen atom."),
				multipleChoice(2, 2, "What is the chemical symbol for gold?",
					`Au comes from the Latin word "aurum" meaning gold.`,
					choices(2, "Go", "Gd", "Au", "Ag")),
				blank(3, 2, "The speed of light is approximately 300,000 {{blank}} per second.", "kilometers|km|kilometres", false,
					"Light travels at about 299,792 kilometers per second in a vacuum."),
				multipleChoice(4, 1, "Which planet is known as the Red Planet?",
					"Mars appears red due to iron oxide on its surface.",
					choices(1, "Venus", "Mars", "Jupiter", "Mercury")),
				blank(5, 2, "The powerhouse of the cell is the {{blank}}.", "mitochondria|mitochondrion", false,
					"Mitochondria generate most of the cell's ATP energy."),
			},
		},
	}
}

// Seed creates the sample quizzes whose titles are not in the catalog yet.
// It returns the number of quizzes created.
func Seed(ctx context.Context, catalog *CatalogService) (int, error) {
	existing, err := catalog.ListQuizzes(ctx)
	if err != nil {
		return 0, err
	}
	titles := make(map[string]bool, len(existing))
	for _, q := range existing {
		titles[q.Title] = true
	}

	created := 0
	for _, sample := range SampleQuizzes() {
		if titles[sample.Title] {
			continue
		}
		quiz, err := catalog.CreateQuiz(ctx, sample, nil)
		if err != nil {
			return created, fmt.Errorf("seed quiz %q: %w", sample.Title, err)
		}
		for _, question := range sample.Questions {
			question.QuizID = quiz.ID
			if _, err := catalog.CreateQuestion(ctx, question); err != nil {
				return created, fmt.Errorf("seed question %q: %w", question.Text, err)
			}
		}
		log.Printf("created quiz: %s", quiz.Title)
		created++
	}
	return created, nil
}
