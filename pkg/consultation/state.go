package consultation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Consultation is one in-progress triage attempt.
type Consultation struct {
	ConversationID  string
	InitialSymptoms string
	Questions       []string
	Answers         []string
	IsActive        bool
}

// State owns the consultation record. Answers always has the same length as
// Questions while the consultation is active.
type State struct {
	current Consultation
	now     func() time.Time
}

func NewState() *State {
	return &State{now: time.Now}
}

// Begin starts a consultation with one empty answer per question. A missing
// conversation id is replaced with a locally generated one.
func (s *State) Begin(symptoms string, questions []string, conversationID string) Consultation {
	if strings.TrimSpace(conversationID) == "" {
		conversationID = s.newConversationID()
	}

	s.current = Consultation{
		ConversationID:  conversationID,
		InitialSymptoms: symptoms,
		Questions:       append([]string(nil), questions...),
		Answers:         make([]string, len(questions)),
		IsActive:        true,
	}
	return s.Current()
}

// SetAnswer caches the answer at index. Late edits that arrive after a reset
// or point outside the question list are ignored.
func (s *State) SetAnswer(index int, text string) {
	if !s.current.IsActive || index < 0 || index >= len(s.current.Answers) {
		return
	}
	s.current.Answers[index] = text
}

// Reset drops the consultation. Used for back, clear, and after a completed
// followup submission.
func (s *State) Reset() Consultation {
	s.current = Consultation{}
	return s.Current()
}

// Current returns a copy of the consultation.
func (s *State) Current() Consultation {
	c := s.current
	c.Questions = append([]string(nil), s.current.Questions...)
	c.Answers = append([]string(nil), s.current.Answers...)
	return c
}

func (s *State) Active() bool {
	return s.current.IsActive
}

func (s *State) newConversationID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("conv_%d_%s", s.now().UnixMilli(), suffix)
}
