package assistant

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptscope/ptscope/pkg/model"
)

// Log is the append-only chat history plus the processing flag. It is owned
// by the assistant panel and mutated only on its event loop; submissions
// while a request is in flight are rejected rather than queued.
type Log struct {
	messages   []model.ChatMessage
	processing bool
}

// NewLog returns an empty log in the idle state.
func NewLog() *Log {
	return &Log{}
}

// Processing reports whether a submitted query is still waiting for its
// answer.
func (l *Log) Processing() bool { return l.processing }

// Messages returns the history oldest-first. Callers must not mutate it.
func (l *Log) Messages() []model.ChatMessage { return l.messages }

// Len returns the number of messages in the log.
func (l *Log) Len() int { return len(l.messages) }

// Submit appends the user message and enters the processing state. It
// returns false without touching the log when the text is empty or a
// request is already in flight.
func (l *Log) Submit(content string) bool {
	if content == "" || l.processing {
		return false
	}
	l.messages = append(l.messages, model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	})
	l.processing = true
	return true
}

// FinishSuccess appends the structured answer and returns to idle.
func (l *Log) FinishSuccess(resp *model.ChatResponse) {
	l.messages = append(l.messages, model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Response:  resp,
		CreatedAt: time.Now(),
	})
	l.processing = false
}

// FinishError absorbs a failed request: exactly one plain-text apology is
// appended and the panel returns to idle. The failure itself is not
// surfaced anywhere else.
func (l *Log) FinishError() {
	l.messages = append(l.messages, model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Content:   ApologyText,
		CreatedAt: time.Now(),
	})
	l.processing = false
}

// Clear wipes the history. The processing flag is untouched so an in-flight
// answer still lands in a consistent state.
func (l *Log) Clear() {
	l.messages = nil
}
