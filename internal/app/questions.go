package app

import (
	"fmt"
	"log"
	"strings"

	"trivia-arena/internal/domain"
)

// normalizeQuestions converts generator output into the in-room shape: every
// option gains its "A) ..." prefix and the stated answer text is resolved to
// a label. Matching is exact first, then case-insensitive; if the answer text
// matches no option at all the question still comes out well-formed with the
// label defaulting to A, and the mismatch is logged so bad generator output
// stays visible.
func normalizeQuestions(raw []domain.GeneratedQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(raw))
	for _, q := range raw {
		correctIndex := -1
		for i, opt := range q.Options {
			if opt == q.Answer {
				correctIndex = i
				break
			}
		}
		if correctIndex < 0 {
			for i, opt := range q.Options {
				if strings.EqualFold(opt, q.Answer) {
					correctIndex = i
					break
				}
			}
		}
		if correctIndex < 0 {
			log.Printf("generated answer %q matches no option for question %q, defaulting to A", q.Answer, q.Question)
			correctIndex = 0
		}

		options := make([]string, len(q.Options))
		for i, opt := range q.Options {
			options[i] = fmt.Sprintf("%c) %s", optionLabel(i), opt)
		}
		questions = append(questions, domain.Question{
			Prompt:        q.Question,
			Options:       options,
			CorrectAnswer: string(optionLabel(correctIndex)),
		})
	}
	return questions
}

func optionLabel(index int) byte {
	return byte('A' + index)
}
