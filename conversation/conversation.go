// Package conversation turns free-form utterances into replies and candidate
// tasks, either locally (pattern extraction plus canned responses) or through
// a remote model, and keeps the chat history.
package conversation

import (
	"context"
	"time"

	"github.com/GoCodeAlone/taskvoice/extract"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metadata describes how a reply was produced.
type Metadata struct {
	Confidence     float64        `json:"confidence"`
	ProcessingTime time.Duration  `json:"processingTime"`
	Intent         extract.Intent `json:"intent,omitempty"`
	Error          string         `json:"error,omitempty"`
	Provider       string         `json:"provider,omitempty"`
	TokensUsed     int            `json:"tokensUsed,omitempty"`
}

// Message is one chat turn. ExtractedTasks holds ids of tasks created from
// it; the ids may dangle once those tasks are deleted.
type Message struct {
	ID             string    `json:"id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	ExtractedTasks []string  `json:"extractedTasks,omitempty"`
	Metadata       *Metadata `json:"metadata,omitempty"`
}

// Conversation is an ordered chat history.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`
}

// UserMemory is what the assistant remembers about the user between sessions.
type UserMemory struct {
	Name            string            `json:"name,omitempty"`
	CurrentProjects []string          `json:"currentProjects,omitempty"`
	Preferences     map[string]string `json:"preferences,omitempty"`
}

// AIResponse is the reply to one utterance.
type AIResponse struct {
	Message     string              `json:"message"`
	Tasks       []extract.Candidate `json:"tasks"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Metadata    Metadata            `json:"metadata"`
}

// Degraded reports whether the reply is a stand-in for a failed remote call.
func (r AIResponse) Degraded() bool { return r.Metadata.Error != "" }

// Processor answers an utterance given the recent history. Implementations
// never fail: problems are reported through Metadata.Error.
type Processor interface {
	ProcessMessage(ctx context.Context, utterance string, history []Message, memory UserMemory) AIResponse
}

// historyWindow is how many prior messages are consulted for context.
const historyWindow = 6

func recent(history []Message, n int) []Message {
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

func turns(history []Message) []extract.Turn {
	out := make([]extract.Turn, len(history))
	for i, m := range history {
		out[i] = extract.Turn{Role: string(m.Role), Content: m.Content}
	}
	return out
}
