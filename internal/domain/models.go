package domain

import "time"

// Phase is a room's position in its lifecycle. Transitions only move forward:
// waiting -> generating -> countdown -> playing -> finished, with playing
// repeating once per question.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseGenerating Phase = "generating"
	PhaseCountdown  Phase = "countdown"
	PhasePlaying    Phase = "playing"
	PhaseFinished   Phase = "finished"
)

// Participant is one connected (or formerly connected) player in a room.
// Disconnected participants stay in the roster so their scores survive into
// the final rankings.
type Participant struct {
	ID        string
	Username  string
	Connected bool
}

// GeneratedQuestion is the raw shape produced by the content generator:
// unlabeled options and the correct answer given as option text.
type GeneratedQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Question is the normalized in-room form: options carry their "A) ..."
// prefix and the correct answer is a single label. Immutable once assigned.
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// AnswerRecord captures one participant's submission for the active question.
// Seq is a per-question monotonic counter taken under the room lock, so two
// records can never tie even with equal wall-clock timestamps.
type AnswerRecord struct {
	ParticipantID string
	Answer        string
	SubmittedAt   time.Time
	Seq           int
}

// RankedAnswer is one correct respondent in speed order.
type RankedAnswer struct {
	ParticipantID string
	Username      string
	SubmittedAt   time.Time
}

// QuestionResult is the outcome of scoring one question's answer window.
// Rankings holds every correct respondent fastest-first; Scores is a snapshot
// of the full scoreboard after the round's adjustments.
type QuestionResult struct {
	CorrectAnswer string
	Scores        map[string]int
	Rankings      []RankedAnswer
}

// FinalStanding is one row of the end-of-game scoreboard.
type FinalStanding struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// GameSummary is computed exactly once, when a room reaches finished.
type GameSummary struct {
	Standings []FinalStanding
	Winner    string
}

// GameResult is the archived record of a finished game.
type GameResult struct {
	RoomID       string          `json:"room_id"`
	Topic        string          `json:"topic"`
	NumQuestions int             `json:"num_questions"`
	Standings    []FinalStanding `json:"standings"`
	Winner       string          `json:"winner,omitempty"`
	FinishedAt   time.Time       `json:"finished_at"`
}
