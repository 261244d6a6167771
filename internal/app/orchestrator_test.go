package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"trivia-arena/internal/app"
	"trivia-arena/internal/domain"
	"trivia-arena/internal/generator"
	"trivia-arena/internal/protocol"
)

func testTimings() app.Timings {
	return app.Timings{
		GenerateTimeout:   200 * time.Millisecond,
		PostGeneratePause: time.Millisecond,
		CountdownSeconds:  2,
		CountdownTick:     time.Millisecond,
		AnswerWindow:      30 * time.Millisecond,
		QuestionGap:       time.Millisecond,
	}
}

type stubSource struct {
	mu        sync.Mutex
	questions []domain.GeneratedQuestion
	err       error
	delay     time.Duration
	calls     int
}

func (s *stubSource) Questions(ctx context.Context, count int, topic string) ([]domain.GeneratedQuestion, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.questions, s.err
}

// captureBroadcaster records everything sent to the room and lets tests
// submit answers the moment a question opens.
type captureBroadcaster struct {
	mu         sync.Mutex
	messages   []any
	onQuestion func(room *app.Room, q protocol.Question)
}

func (b *captureBroadcaster) SendToRoom(room *app.Room, msg any, excludeID string) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	b.mu.Unlock()
	if q, ok := msg.(protocol.Question); ok && b.onQuestion != nil {
		b.onQuestion(room, q)
	}
}

func (b *captureBroadcaster) SendTo(participantID string, msg any) {}

func (b *captureBroadcaster) byType() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := make(map[string]int)
	for _, msg := range b.messages {
		switch msg.(type) {
		case protocol.GeneratingQuestions:
			counts[protocol.TypeGeneratingQuestions]++
		case protocol.QuestionsGenerated:
			counts[protocol.TypeQuestionsGenerated]++
		case protocol.GameStarting:
			counts[protocol.TypeGameStarting]++
		case protocol.Countdown:
			counts[protocol.TypeCountdown]++
		case protocol.Question:
			counts[protocol.TypeQuestion]++
		case protocol.QuestionResults:
			counts[protocol.TypeQuestionResults]++
		case protocol.GameEnded:
			counts[protocol.TypeGameEnded]++
		}
	}
	return counts
}

func (b *captureBroadcaster) last(t *testing.T, match func(any) bool) any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.messages) - 1; i >= 0; i-- {
		if match(b.messages[i]) {
			return b.messages[i]
		}
	}
	t.Fatalf("no matching message among %d broadcast", len(b.messages))
	return nil
}

func fullRoom(t *testing.T) *app.Room {
	t.Helper()
	room := app.NewRoom("ROOM1234", 2, 5, "science", "u1")
	if err := room.Join("u1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := room.Join("u2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	return room
}

func TestOrchestratorDrivesFullSession(t *testing.T) {
	source := &stubSource{questions: []domain.GeneratedQuestion{
		{Question: "Capital of France?", Options: []string{"London", "Berlin", "Paris", "Madrid"}, Answer: "Paris"},
	}}
	broadcast := &captureBroadcaster{}
	broadcast.onQuestion = func(room *app.Room, q protocol.Question) {
		// Alice answers correctly first, Bob wrong.
		if err := room.RecordAnswer("u1", "C"); err != nil {
			t.Errorf("record u1: %v", err)
		}
		if err := room.RecordAnswer("u2", "A"); err != nil {
			t.Errorf("record u2: %v", err)
		}
	}

	room := fullRoom(t)
	orch := app.NewSessionOrchestrator(source, broadcast, nil, generator.Fallback(), testTimings())
	orch.Run(context.Background(), room)

	if room.Phase() != domain.PhaseFinished {
		t.Fatalf("expected finished, got %s", room.Phase())
	}

	counts := broadcast.byType()
	if counts[protocol.TypeCountdown] != 2 {
		t.Fatalf("expected 2 countdown ticks, got %d", counts[protocol.TypeCountdown])
	}
	if counts[protocol.TypeQuestion] != 1 || counts[protocol.TypeQuestionResults] != 1 {
		t.Fatalf("expected one question round, got %v", counts)
	}
	if counts[protocol.TypeGameEnded] != 1 {
		t.Fatalf("expected exactly one game_ended, got %d", counts[protocol.TypeGameEnded])
	}

	results := broadcast.last(t, func(m any) bool { _, ok := m.(protocol.QuestionResults); return ok }).(protocol.QuestionResults)
	if results.CorrectAnswer != "C" {
		t.Fatalf("expected correct answer C, got %s", results.CorrectAnswer)
	}
	if len(results.Rankings) != 1 || results.Rankings[0].Username != "Alice" {
		t.Fatalf("expected Alice alone in rankings, got %+v", results.Rankings)
	}
	if results.Scores["u1"] != 3 || results.Scores["u2"] != -1 {
		t.Fatalf("unexpected scores %v", results.Scores)
	}

	ended := broadcast.last(t, func(m any) bool { _, ok := m.(protocol.GameEnded); return ok }).(protocol.GameEnded)
	if ended.Winner != "Alice" {
		t.Fatalf("expected Alice to win, got %q", ended.Winner)
	}
	if len(ended.FinalScores) != 2 || ended.FinalScores[0].Score != 3 {
		t.Fatalf("unexpected final scores %+v", ended.FinalScores)
	}
}

func TestOrchestratorFallsBackOnGeneratorError(t *testing.T) {
	source := &stubSource{err: domain.ErrQuestionSetUnavailable}
	broadcast := &captureBroadcaster{}

	room := fullRoom(t)
	orch := app.NewSessionOrchestrator(source, broadcast, nil, generator.Fallback(), testTimings())
	orch.Run(context.Background(), room)

	if room.Phase() != domain.PhaseFinished {
		t.Fatalf("generator failure must not fail the room, phase=%s", room.Phase())
	}
	generated := broadcast.last(t, func(m any) bool { _, ok := m.(protocol.QuestionsGenerated); return ok }).(protocol.QuestionsGenerated)
	if generated.NumQuestions != len(generator.Fallback()) {
		t.Fatalf("expected fallback set of %d, got %d", len(generator.Fallback()), generated.NumQuestions)
	}
	counts := broadcast.byType()
	if counts[protocol.TypeQuestion] != len(generator.Fallback()) {
		t.Fatalf("expected %d questions broadcast, got %d", len(generator.Fallback()), counts[protocol.TypeQuestion])
	}
}

func TestOrchestratorFallsBackOnGeneratorTimeout(t *testing.T) {
	source := &stubSource{
		questions: []domain.GeneratedQuestion{{Question: "late", Options: []string{"a", "b"}, Answer: "a"}},
		delay:     time.Second,
	}
	timings := testTimings()
	timings.GenerateTimeout = 10 * time.Millisecond

	broadcast := &captureBroadcaster{}
	room := fullRoom(t)
	orch := app.NewSessionOrchestrator(source, broadcast, nil, generator.Fallback(), timings)
	orch.Run(context.Background(), room)

	generated := broadcast.last(t, func(m any) bool { _, ok := m.(protocol.QuestionsGenerated); return ok }).(protocol.QuestionsGenerated)
	if generated.NumQuestions != len(generator.Fallback()) {
		t.Fatalf("expected fallback after timeout, got %d questions", generated.NumQuestions)
	}
}

func TestOrchestratorAbandonsCanceledSession(t *testing.T) {
	source := &stubSource{questions: []domain.GeneratedQuestion{
		{Question: "q", Options: []string{"a", "b"}, Answer: "a"},
	}}
	broadcast := &captureBroadcaster{}
	ctx, cancel := context.WithCancel(context.Background())
	broadcast.onQuestion = func(room *app.Room, q protocol.Question) { cancel() }

	room := fullRoom(t)
	orch := app.NewSessionOrchestrator(source, broadcast, nil, generator.Fallback(), testTimings())
	orch.Run(ctx, room)

	if room.Phase() == domain.PhaseFinished {
		t.Fatalf("canceled session must not reach finished")
	}
	if counts := broadcast.byType(); counts[protocol.TypeGameEnded] != 0 {
		t.Fatalf("canceled session must not broadcast game_ended")
	}
}
