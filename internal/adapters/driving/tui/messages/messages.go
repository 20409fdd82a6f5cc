// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// QuestionSubmitted is sent when the user asks a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the outcome of one question back to the model.
type AnswerReceived struct {
	// Turn is the transcript position the answer belongs to.
	Turn     int
	Question string
	Answer   *domain.Answer
	Err      error
}

// IndexInfoLoaded carries a summary of the served index.
type IndexInfoLoaded struct {
	Info driving.IndexInfo
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
