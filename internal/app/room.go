package app

import (
	"sort"
	"sync"
	"time"

	"trivia-arena/internal/domain"
)

// Room is the state machine for one trivia session. All mutation happens
// under r.mu; phase transitions are one-directional and the roster never
// shrinks, so scores outlive disconnects.
type Room struct {
	id           string
	capacity     int
	numQuestions int
	topic        string
	hostID       string
	now          func() time.Time

	mu           sync.Mutex
	phase        domain.Phase
	roster       []string
	participants map[string]*domain.Participant
	scores       map[string]int
	questions    []domain.Question
	current      int
	answers      map[string]domain.AnswerRecord
	answerSeq    int
	finishedAt   time.Time
}

func NewRoom(id string, capacity, numQuestions int, topic, hostID string) *Room {
	return NewRoomWithClock(id, capacity, numQuestions, topic, hostID, time.Now)
}

// NewRoomWithClock allows deterministic timestamps in tests.
func NewRoomWithClock(id string, capacity, numQuestions int, topic, hostID string, now func() time.Time) *Room {
	return &Room{
		id:           id,
		capacity:     capacity,
		numQuestions: numQuestions,
		topic:        topic,
		hostID:       hostID,
		now:          now,
		phase:        domain.PhaseWaiting,
		participants: make(map[string]*domain.Participant),
		scores:       make(map[string]int),
		answers:      make(map[string]domain.AnswerRecord),
	}
}

func (r *Room) ID() string        { return r.id }
func (r *Room) Topic() string     { return r.topic }
func (r *Room) Capacity() int     { return r.capacity }
func (r *Room) NumQuestions() int { return r.numQuestions }

func (r *Room) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Join adds a participant while the room is still filling. Late joiners are
// accepted during generation; once the countdown starts the game is closed.
func (r *Room) Join(userID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhaseWaiting && r.phase != domain.PhaseGenerating {
		return domain.ErrGameInProgress
	}
	if len(r.roster) >= r.capacity {
		return domain.ErrRoomFull
	}
	if _, ok := r.participants[userID]; ok {
		return nil
	}
	r.roster = append(r.roster, userID)
	r.participants[userID] = &domain.Participant{
		ID:        userID,
		Username:  username,
		Connected: true,
	}
	r.scores[userID] = 0
	return nil
}

func (r *Room) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roster) >= r.capacity
}

func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roster)
}

// RosterIDs returns participant IDs in join order.
func (r *Room) RosterIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.roster))
	copy(ids, r.roster)
	return ids
}

// Usernames returns display names in join order.
func (r *Room) Usernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.roster))
	for _, id := range r.roster {
		names = append(names, r.participants[id].Username)
	}
	return names
}

func (r *Room) Username(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[userID]
	if !ok {
		return "", false
	}
	return p.Username, true
}

// MarkDisconnected flips the liveness flag without removing the participant;
// their score entry stays for the final rankings.
func (r *Room) MarkDisconnected(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[userID]
	if !ok || !p.Connected {
		return "", false
	}
	p.Connected = false
	return p.Username, true
}

// BeginGeneration moves waiting -> generating.
func (r *Room) BeginGeneration() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != domain.PhaseWaiting {
		return false
	}
	r.phase = domain.PhaseGenerating
	return true
}

// SetQuestions assigns the normalized question set; only valid while generating.
func (r *Room) SetQuestions(questions []domain.Question) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != domain.PhaseGenerating {
		return false
	}
	r.questions = questions
	return true
}

// BeginCountdown moves generating -> countdown.
func (r *Room) BeginCountdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != domain.PhaseGenerating {
		return false
	}
	r.phase = domain.PhaseCountdown
	return true
}

// StartNextQuestion opens the answer window for the next question. It returns
// the question plus its 1-based number and the total, or ok=false when the
// set is exhausted.
func (r *Room) StartNextQuestion() (domain.Question, int, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhaseCountdown && r.phase != domain.PhasePlaying {
		return domain.Question{}, 0, 0, false
	}
	if r.current >= len(r.questions) {
		return domain.Question{}, 0, 0, false
	}
	r.phase = domain.PhasePlaying
	r.answers = make(map[string]domain.AnswerRecord)
	r.answerSeq = 0
	return r.questions[r.current], r.current + 1, len(r.questions), true
}

// RecordAnswer stores a participant's first submission for the active
// question. The sequence number is taken under the lock, so ordering is total
// even when timestamps collide.
func (r *Room) RecordAnswer(userID, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhasePlaying {
		return domain.ErrNotAcceptingAnswers
	}
	if _, ok := r.participants[userID]; !ok {
		return domain.ErrParticipantNotFound
	}
	if _, ok := r.answers[userID]; ok {
		return domain.ErrAnswerAlreadyRecorded
	}
	r.answers[userID] = domain.AnswerRecord{
		ParticipantID: userID,
		Answer:        answer,
		SubmittedAt:   r.now(),
		Seq:           r.answerSeq,
	}
	r.answerSeq++
	return nil
}

// CloseQuestion ends the active answer window: it scores the submissions,
// advances the question index, and returns the round result with correct
// respondents ranked fastest-first.
func (r *Room) CloseQuestion() domain.QuestionResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current >= len(r.questions) {
		return domain.QuestionResult{Scores: copyScores(r.scores)}
	}

	correct := r.questions[r.current].CorrectAnswer
	records := make([]domain.AnswerRecord, 0, len(r.answers))
	for _, rec := range r.answers {
		records = append(records, rec)
	}

	ranked := scoreQuestion(correct, records, r.scores)
	rankings := make([]domain.RankedAnswer, 0, len(ranked))
	for _, rec := range ranked {
		rankings = append(rankings, domain.RankedAnswer{
			ParticipantID: rec.ParticipantID,
			Username:      r.participants[rec.ParticipantID].Username,
			SubmittedAt:   rec.SubmittedAt,
		})
	}

	r.current++
	return domain.QuestionResult{
		CorrectAnswer: correct,
		Scores:        copyScores(r.scores),
		Rankings:      rankings,
	}
}

// Finish moves the room to its terminal phase and computes the final
// standings, ordered by score descending with join order breaking ties.
func (r *Room) Finish() domain.GameSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhaseFinished {
		r.phase = domain.PhaseFinished
		r.finishedAt = r.now()
	}

	standings := make([]domain.FinalStanding, 0, len(r.roster))
	for _, id := range r.roster {
		standings = append(standings, domain.FinalStanding{
			Username: r.participants[id].Username,
			Score:    r.scores[id],
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})

	summary := domain.GameSummary{Standings: standings}
	if len(standings) > 0 {
		summary.Winner = standings[0].Username
	}
	return summary
}

// FinishedBefore reports whether the room reached finished at or before cutoff.
func (r *Room) FinishedBefore(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase == domain.PhaseFinished && !r.finishedAt.After(cutoff)
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for id, score := range scores {
		out[id] = score
	}
	return out
}
