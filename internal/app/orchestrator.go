package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/protocol"
)

// Timings collects every interval the orchestrator sleeps on, so tests can
// shrink them to milliseconds.
type Timings struct {
	GenerateTimeout   time.Duration
	PostGeneratePause time.Duration
	CountdownSeconds  int
	CountdownTick     time.Duration
	AnswerWindow      time.Duration
	QuestionGap       time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		GenerateTimeout:   20 * time.Second,
		PostGeneratePause: 2 * time.Second,
		CountdownSeconds:  10,
		CountdownTick:     time.Second,
		AnswerWindow:      5 * time.Second,
		QuestionGap:       3 * time.Second,
	}
}

// SessionOrchestrator drives a full room through generation, countdown, the
// question loop, and the final rankings. It is the only component that
// sleeps; rooms are otherwise purely reactive. One Run per room, rooms never
// share state, so sessions cannot stall each other.
type SessionOrchestrator struct {
	source    QuestionSource
	broadcast Broadcaster
	archive   GameArchiver
	fallback  []domain.GeneratedQuestion
	timings   Timings
}

// NewSessionOrchestrator wires the orchestrator. archive may be nil;
// archiving is best-effort either way.
func NewSessionOrchestrator(source QuestionSource, broadcast Broadcaster, archive GameArchiver, fallback []domain.GeneratedQuestion, timings Timings) *SessionOrchestrator {
	return &SessionOrchestrator{
		source:    source,
		broadcast: broadcast,
		archive:   archive,
		fallback:  fallback,
		timings:   timings,
	}
}

// Run owns the room's whole lifecycle after it fills. Canceling ctx abandons
// the session at the next suspension point.
func (o *SessionOrchestrator) Run(ctx context.Context, room *Room) {
	if !room.BeginGeneration() {
		return
	}

	o.broadcast.SendToRoom(room, protocol.GeneratingQuestions{
		Type:    protocol.TypeGeneratingQuestions,
		Message: fmt.Sprintf("AI is generating %d questions about %s...", room.NumQuestions(), room.Topic()),
	}, "")

	questions := normalizeQuestions(o.generate(ctx, room))
	room.SetQuestions(questions)

	o.broadcast.SendToRoom(room, protocol.QuestionsGenerated{
		Type:         protocol.TypeQuestionsGenerated,
		Message:      fmt.Sprintf("Questions ready! %d questions generated.", len(questions)),
		NumQuestions: len(questions),
	}, "")

	if !sleepCtx(ctx, o.timings.PostGeneratePause) {
		return
	}
	if !room.BeginCountdown() {
		return
	}

	o.broadcast.SendToRoom(room, protocol.GameStarting{
		Type:    protocol.TypeGameStarting,
		Message: fmt.Sprintf("All players joined! Game starting in %d seconds...", o.timings.CountdownSeconds),
	}, "")

	for i := o.timings.CountdownSeconds; i > 0; i-- {
		o.broadcast.SendToRoom(room, protocol.Countdown{Type: protocol.TypeCountdown, Seconds: i}, "")
		if !sleepCtx(ctx, o.timings.CountdownTick) {
			return
		}
	}

	for {
		question, number, total, ok := room.StartNextQuestion()
		if !ok {
			break
		}

		o.broadcast.SendToRoom(room, protocol.Question{
			Type:           protocol.TypeQuestion,
			QuestionNumber: number,
			TotalQuestions: total,
			Question:       question.Prompt,
			Options:        question.Options,
			TimeLimit:      int(o.timings.AnswerWindow / time.Second),
		}, "")

		if !sleepCtx(ctx, o.timings.AnswerWindow) {
			return
		}

		result := room.CloseQuestion()
		o.broadcast.SendToRoom(room, resultsMessage(result), "")

		if !sleepCtx(ctx, o.timings.QuestionGap) {
			return
		}
	}

	o.finish(room)
}

// generate calls the content source bounded by the configured timeout. Any
// failure, timeout, or empty result substitutes the fallback set; a result
// arriving after the deadline is simply discarded.
func (o *SessionOrchestrator) generate(ctx context.Context, room *Room) []domain.GeneratedQuestion {
	genCtx, cancel := context.WithTimeout(ctx, o.timings.GenerateTimeout)
	defer cancel()

	type genResult struct {
		questions []domain.GeneratedQuestion
		err       error
	}
	done := make(chan genResult, 1)
	go func() {
		questions, err := o.source.Questions(genCtx, room.NumQuestions(), room.Topic())
		done <- genResult{questions, err}
	}()

	select {
	case res := <-done:
		if res.err != nil || len(res.questions) == 0 {
			log.Printf("question generation failed for room %s: %v, using fallback set", room.ID(), res.err)
			return o.fallback
		}
		return res.questions
	case <-genCtx.Done():
		log.Printf("question generation timed out for room %s, using fallback set", room.ID())
		return o.fallback
	}
}

func (o *SessionOrchestrator) finish(room *Room) {
	summary := room.Finish()

	finalScores := make([]protocol.FinalScoreRow, 0, len(summary.Standings))
	for _, standing := range summary.Standings {
		finalScores = append(finalScores, protocol.FinalScoreRow{
			Username: standing.Username,
			Score:    standing.Score,
		})
	}
	o.broadcast.SendToRoom(room, protocol.GameEnded{
		Type:        protocol.TypeGameEnded,
		FinalScores: finalScores,
		Winner:      summary.Winner,
	}, "")

	if o.archive == nil {
		return
	}
	result := domain.GameResult{
		RoomID:       room.ID(),
		Topic:        room.Topic(),
		NumQuestions: room.NumQuestions(),
		Standings:    summary.Standings,
		Winner:       summary.Winner,
		FinishedAt:   time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.archive.SaveResult(ctx, result); err != nil {
			log.Printf("archiving game result for room %s: %v", result.RoomID, err)
		}
	}()
}

// resultsMessage caps the on-wire rankings at the podium, matching what the
// client renders; the scoreboard map carries everyone's totals.
func resultsMessage(result domain.QuestionResult) protocol.QuestionResults {
	rankings := make([]protocol.RankingEntry, 0, len(speedBonus))
	for i, ranked := range result.Rankings {
		if i >= len(speedBonus) {
			break
		}
		rankings = append(rankings, protocol.RankingEntry{
			ParticipantID: ranked.ParticipantID,
			Username:      ranked.Username,
			SubmittedAt:   ranked.SubmittedAt,
		})
	}
	return protocol.QuestionResults{
		Type:          protocol.TypeQuestionResults,
		CorrectAnswer: result.CorrectAnswer,
		Scores:        result.Scores,
		Rankings:      rankings,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
