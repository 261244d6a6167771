package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID does not resolve to an active room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed the room's capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrGameInProgress is returned when joining a room past the generating phase.
	ErrGameInProgress = errors.New("game already started")
	// ErrRoomExists signals a room code collision on creation.
	ErrRoomExists = errors.New("room already exists")
	// ErrParticipantNotFound is returned when a user acts in a room they never joined.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrNotAcceptingAnswers is returned when a submission arrives outside an answer window.
	ErrNotAcceptingAnswers = errors.New("room is not accepting answers")
	// ErrAnswerAlreadyRecorded is returned on a second submission for the same question.
	ErrAnswerAlreadyRecorded = errors.New("answer already recorded")
	// ErrQuestionSetUnavailable indicates the content generator produced nothing usable.
	ErrQuestionSetUnavailable = errors.New("question set unavailable")
)
