// Package protocol defines the wire messages exchanged with presentation
// clients. Inbound actions and outbound message types are closed sets of
// tagged structs validated at the transport boundary; field names match the
// original client contract and must not change.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound action names.
const (
	ActionCreateRoom   = "create_room"
	ActionJoinRoom     = "join_room"
	ActionSubmitAnswer = "submit_answer"
)

// Outbound message types.
const (
	TypeRoomCreated             = "room_created"
	TypeRoomJoined              = "room_joined"
	TypeParticipantJoined       = "participant_joined"
	TypeParticipantDisconnected = "participant_disconnected"
	TypeGeneratingQuestions     = "generating_questions"
	TypeQuestionsGenerated      = "questions_generated"
	TypeGameStarting            = "game_starting"
	TypeCountdown               = "countdown"
	TypeQuestion                = "question"
	TypeAnswerRecorded          = "answer_recorded"
	TypeQuestionResults         = "question_results"
	TypeGameEnded               = "game_ended"
	TypeError                   = "error"
)

// Envelope carries only the action discriminator; the full raw message is
// re-decoded into the matching action struct.
type Envelope struct {
	Action string `json:"action"`
}

type CreateRoomAction struct {
	Username        string `json:"username"`
	MaxParticipants int    `json:"max_participants"`
	NumQuestions    int    `json:"num_questions"`
	Topic           string `json:"topic"`
}

type JoinRoomAction struct {
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
}

type SubmitAnswerAction struct {
	RoomID string `json:"room_id"`
	Answer string `json:"answer"`
}

type RoomCreated struct {
	Type                string `json:"type"`
	RoomID              string `json:"room_id"`
	Username            string `json:"username"`
	MaxParticipants     int    `json:"max_participants"`
	CurrentParticipants int    `json:"current_participants"`
	NumQuestions        int    `json:"num_questions"`
	Topic               string `json:"topic"`
}

type RoomJoined struct {
	Type                string `json:"type"`
	RoomID              string `json:"room_id"`
	Username            string `json:"username"`
	CurrentParticipants int    `json:"current_participants"`
	MaxParticipants     int    `json:"max_participants"`
	NumQuestions        int    `json:"num_questions"`
	Topic               string `json:"topic"`
}

type ParticipantJoined struct {
	Type                string   `json:"type"`
	Username            string   `json:"username"`
	CurrentParticipants int      `json:"current_participants"`
	MaxParticipants     int      `json:"max_participants"`
	Participants        []string `json:"participants"`
}

type ParticipantDisconnected struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type GeneratingQuestions struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type QuestionsGenerated struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	NumQuestions int    `json:"num_questions"`
}

type GameStarting struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Countdown struct {
	Type    string `json:"type"`
	Seconds int    `json:"seconds"`
}

type Question struct {
	Type           string   `json:"type"`
	QuestionNumber int      `json:"question_number"`
	TotalQuestions int      `json:"total_questions"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"time_limit"`
}

type AnswerRecorded struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type QuestionResults struct {
	Type          string         `json:"type"`
	CorrectAnswer string         `json:"correct_answer"`
	Scores        map[string]int `json:"scores"`
	Rankings      []RankingEntry `json:"rankings"`
}

type GameEnded struct {
	Type        string          `json:"type"`
	FinalScores []FinalScoreRow `json:"final_scores"`
	Winner      string          `json:"winner,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RankingEntry encodes as the [participant_id, username, timestamp] tuple
// the original client expects.
type RankingEntry struct {
	ParticipantID string
	Username      string
	SubmittedAt   time.Time
}

func (r RankingEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{r.ParticipantID, r.Username, r.SubmittedAt.Format(time.RFC3339Nano)})
}

func (r *RankingEntry) UnmarshalJSON(data []byte) error {
	var tuple [3]string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, tuple[2])
	if err != nil {
		return fmt.Errorf("ranking timestamp: %w", err)
	}
	r.ParticipantID, r.Username, r.SubmittedAt = tuple[0], tuple[1], ts
	return nil
}

// FinalScoreRow encodes as the [username, score] tuple of the final standings.
type FinalScoreRow struct {
	Username string
	Score    int
}

func (f FinalScoreRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{f.Username, f.Score})
}

func (f *FinalScoreRow) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("final score row: expected 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &f.Username); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &f.Score)
}
