package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/helmcode/triage/pkg/model"
)

// ErrInvalidResponse reports a body that is not a JSON object.
var ErrInvalidResponse = errors.New("invalid response from server")

const responseTypeQuestions = "questions"

// Response is a decoded /analyze_symptoms body. Questions is set only for a
// "questions" response that actually carries questions; Shape is always set.
type Response struct {
	Questions *QuestionSet
	Shape     AssessmentShape
}

// QuestionSet is a follow-up question round sent by the backend.
type QuestionSet struct {
	Questions      []string
	ConversationID string
}

// AssessmentShape is one of the known result layouts of the backend:
// NestedAssessment or FlatAssessment.
type AssessmentShape interface {
	shape()
}

// NestedAssessment is a body whose "assessment" member is an object.
type NestedAssessment struct {
	Assessment fields
	Top        topLevel
}

// FlatAssessment is a body that carries the assessment fields at the top level.
type FlatAssessment struct {
	Top topLevel
}

func (NestedAssessment) shape() {}
func (FlatAssessment) shape()   {}

// fields are the members an assessment source may carry. Nil slices mean the
// member was absent (or of an unexpected type).
type fields struct {
	PossibleConditions []model.Condition
	Recommendations    []string
	RedFlags           []string
	WhenToSeekCare     string
}

type topLevel struct {
	fields
	Conditions []string
	Disclaimer string
}

// Decode parses a raw body into a Response. Only a body that is not a JSON
// object fails; members with unexpected types are treated as absent.
func Decode(raw []byte) (*Response, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	top := topLevel{
		fields:     decodeFields(members),
		Conditions: stringList(members["conditions"]),
		Disclaimer: str(members["disclaimer"]),
	}

	resp := &Response{Shape: FlatAssessment{Top: top}}

	if nested, ok := members["assessment"]; ok && isObject(nested) {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			resp.Shape = NestedAssessment{Assessment: decodeFields(inner), Top: top}
		}
	}

	if str(members["response_type"]) == responseTypeQuestions {
		if questions := stringList(members["questions"]); len(questions) > 0 {
			resp.Questions = &QuestionSet{
				Questions:      questions,
				ConversationID: strings.TrimSpace(str(members["conversation_id"])),
			}
		}
	}

	return resp, nil
}

func decodeFields(members map[string]json.RawMessage) fields {
	return fields{
		PossibleConditions: conditionList(members["possible_conditions"]),
		Recommendations:    stringList(members["recommendations"]),
		RedFlags:           stringList(members["red_flags"]),
		WhenToSeekCare:     str(members["when_to_seek_care"]),
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

func str(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stringList returns nil when raw is absent, null, or not an array. Null,
// blank, and non-string items are skipped.
func stringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := str(item); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// conditionList accepts structured items as well as bare strings. Items
// without a condition name are skipped.
func conditionList(raw json.RawMessage) []model.Condition {
	var items []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]model.Condition, 0, len(items))
	for _, item := range items {
		if isObject(item) {
			var c struct {
				Condition  json.RawMessage `json:"condition"`
				Likelihood json.RawMessage `json:"likelihood"`
				Reasoning  json.RawMessage `json:"reasoning"`
			}
			if json.Unmarshal(item, &c) != nil {
				continue
			}
			if strings.TrimSpace(str(c.Condition)) == "" {
				continue
			}
			out = append(out, model.Condition{
				Condition:  str(c.Condition),
				Likelihood: model.ParseLikelihood(str(c.Likelihood)),
				Reasoning:  str(c.Reasoning),
			})
			continue
		}
		if s := str(item); strings.TrimSpace(s) != "" {
			out = append(out, model.Condition{Condition: s, Likelihood: model.LikelihoodUnknown})
		}
	}
	return out
}
