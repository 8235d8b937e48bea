package model

import (
	"time"

	"github.com/goccy/go-json"
)

// HistoryAssessmentKind tells which form the stored assessment of a past
// consultation arrived in.
type HistoryAssessmentKind string

const (
	HistoryAssessmentAbsent HistoryAssessmentKind = "absent"
	HistoryAssessmentObject HistoryAssessmentKind = "object"
	HistoryAssessmentText   HistoryAssessmentKind = "text"
)

type HistoryAssessment struct {
	Kind HistoryAssessmentKind `json:"kind" yaml:"kind"`
	// ConditionNames is filled for HistoryAssessmentObject.
	ConditionNames []string `json:"condition_names,omitempty" yaml:"condition_names,omitempty"`
	// Text is filled for HistoryAssessmentText.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// HistoryEntry is a read-only past consultation as returned by GET /history.
type HistoryEntry struct {
	ID        string
	CreatedAt time.Time
	// CreatedAtRaw is the timestamp as sent, kept for values that do not parse.
	CreatedAtRaw     string
	Symptoms         string
	ConsultationType string
	ConversationID   string
	Questions        []string
	Assessment       HistoryAssessment
}

func (e HistoryEntry) QuestionCount() int {
	return len(e.Questions)
}

// historyEntryOutput is the json/yaml form of a HistoryEntry.
type historyEntryOutput struct {
	ID               string            `json:"id" yaml:"id"`
	CreatedAt        string            `json:"created_at" yaml:"created_at"`
	Symptoms         string            `json:"symptoms" yaml:"symptoms"`
	ConsultationType string            `json:"consultation_type" yaml:"consultation_type"`
	ConversationID   string            `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	QuestionCount    int               `json:"question_count" yaml:"question_count"`
	Questions        []string          `json:"questions" yaml:"questions"`
	Assessment       HistoryAssessment `json:"assessment" yaml:"assessment"`
}

func (e HistoryEntry) output() historyEntryOutput {
	createdAt := e.CreatedAtRaw
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.Format(time.RFC3339Nano)
	}
	questions := e.Questions
	if questions == nil {
		questions = []string{}
	}
	return historyEntryOutput{
		ID:               e.ID,
		CreatedAt:        createdAt,
		Symptoms:         e.Symptoms,
		ConsultationType: e.ConsultationType,
		ConversationID:   e.ConversationID,
		QuestionCount:    e.QuestionCount(),
		Questions:        questions,
		Assessment:       e.Assessment,
	}
}

func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.output())
}

func (e HistoryEntry) MarshalYAML() (any, error) {
	return e.output(), nil
}
