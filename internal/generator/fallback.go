package generator

import "trivia-arena/internal/domain"

// Fallback returns the fixed general-knowledge set used whenever generation
// fails or times out. Rooms proceed normally on it; the failure is never
// surfaced to participants.
func Fallback() []domain.GeneratedQuestion {
	return []domain.GeneratedQuestion{
		{
			Question: "What is the capital of France?",
			Options:  []string{"London", "Berlin", "Paris", "Madrid"},
			Answer:   "Paris",
		},
		{
			Question: "What is 2 + 2?",
			Options:  []string{"3", "4", "5", "6"},
			Answer:   "4",
		},
		{
			Question: "Which planet is known as the Red Planet?",
			Options:  []string{"Venus", "Mars", "Jupiter", "Saturn"},
			Answer:   "Mars",
		},
		{
			Question: "How many continents are there on Earth?",
			Options:  []string{"5", "6", "7", "8"},
			Answer:   "7",
		},
		{
			Question: "What is the largest ocean on Earth?",
			Options:  []string{"Atlantic", "Indian", "Arctic", "Pacific"},
			Answer:   "Pacific",
		},
	}
}
