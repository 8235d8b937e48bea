package model

import "strings"

// DefaultDisclaimer is shown whenever the backend omits its own disclaimer.
const DefaultDisclaimer = "This consultation is for educational purposes only and is not a substitute for professional medical advice, diagnosis, or treatment."

// NoAnswerProvided replaces a follow-up answer the user left blank.
const NoAnswerProvided = "No answer provided"

// DefaultConsultationType labels history entries that carry no type.
const DefaultConsultationType = "Medical Consultation"

// Likelihood grades a possible condition; anything unrecognised is LikelihoodUnknown.
type Likelihood string

const (
	LikelihoodHigh     Likelihood = "high"
	LikelihoodModerate Likelihood = "moderate"
	LikelihoodLow      Likelihood = "low"
	LikelihoodUnknown  Likelihood = "unknown"
)

// Category is the presentation bucket of a likelihood. Anything outside
// high/moderate/low lands in CategoryNeutral.
type Category string

const (
	CategoryHigh     Category = "high"
	CategoryModerate Category = "moderate"
	CategoryLow      Category = "low"
	CategoryNeutral  Category = "neutral"
)

// ParseLikelihood lower-cases and trims a raw value. Unrecognized values are
// kept as-is so they can still be shown to the user.
func ParseLikelihood(raw string) Likelihood {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return LikelihoodUnknown
	}
	return Likelihood(v)
}

func (l Likelihood) Category() Category {
	switch l {
	case LikelihoodHigh:
		return CategoryHigh
	case LikelihoodModerate:
		return CategoryModerate
	case LikelihoodLow:
		return CategoryLow
	default:
		return CategoryNeutral
	}
}

// Condition is one possible diagnosis in an assessment.
type Condition struct {
	Condition  string     `json:"condition" yaml:"condition"`
	Likelihood Likelihood `json:"likelihood" yaml:"likelihood"`
	Reasoning  string     `json:"reasoning" yaml:"reasoning"`
}

// Assessment is the canonical triage result. The json tags match the flat
// backend shape, so a marshalled Assessment is itself a valid payload.
type Assessment struct {
	PossibleConditions []Condition `json:"possible_conditions" yaml:"possible_conditions"`
	Recommendations    []string    `json:"recommendations" yaml:"recommendations"`
	RedFlags           []string    `json:"red_flags" yaml:"red_flags"`
	WhenToSeekCare     string      `json:"when_to_seek_care,omitempty" yaml:"when_to_seek_care,omitempty"`
	Disclaimer         string      `json:"disclaimer" yaml:"disclaimer"`
}

type FollowupAnswer struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// AnalyzeRequest is the body of POST /analyze_symptoms.
type AnalyzeRequest struct {
	Symptoms            string           `json:"symptoms"`
	ConversationHistory []FollowupAnswer `json:"conversation_history"`
	IsFollowup          bool             `json:"is_followup"`
}
