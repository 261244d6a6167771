package app

import (
	"sort"
	"strings"

	"trivia-arena/internal/domain"
)

// speedBonus awards +3/+2/+1 to the three fastest correct answers.
var speedBonus = [...]int{3, 2, 1}

// scoreQuestion applies one question's outcome to the scoreboard in place and
// returns the correct respondents ordered fastest-first. An incorrect
// submission costs a point; submitting nothing costs nothing. Ties on the
// wall clock fall back to submission sequence, which is unique per question.
func scoreQuestion(correctAnswer string, records []domain.AnswerRecord, scores map[string]int) []domain.AnswerRecord {
	ranked := make([]domain.AnswerRecord, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(rec.Answer, correctAnswer) {
			ranked = append(ranked, rec)
		} else {
			scores[rec.ParticipantID]--
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].Seq < ranked[j].Seq
	})

	for i, rec := range ranked {
		if i >= len(speedBonus) {
			break
		}
		scores[rec.ParticipantID] += speedBonus[i]
	}
	return ranked
}
