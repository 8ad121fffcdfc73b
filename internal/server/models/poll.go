package models

import "github.com/google/uuid"

// NewPoll — то, что пишется в polls на первом шаге создания.
type NewPoll struct {
	Question  string
	CreatedBy uuid.UUID
}

// NewOption — вариант ответа для многострочной вставки.
type NewOption struct {
	PollID   uuid.UUID
	Text     string
	Position int
}
