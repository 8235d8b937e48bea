package parser

import (
	"strings"

	"github.com/helmcode/triage/pkg/model"
)

// Normalize decodes a raw backend body and collapses it into the canonical
// Assessment. It fails only with ErrInvalidResponse.
func Normalize(raw []byte) (*model.Assessment, error) {
	resp, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	a := NormalizeShape(resp.Shape)
	return &a, nil
}

// NormalizeShape maps every known shape onto model.Assessment.
func NormalizeShape(shape AssessmentShape) model.Assessment {
	switch s := shape.(type) {
	case NestedAssessment:
		return build(s.Assessment, s.Top)
	case FlatAssessment:
		return build(s.Top.fields, s.Top)
	default:
		return build(fields{}, topLevel{})
	}
}

func build(source fields, top topLevel) model.Assessment {
	a := model.Assessment{
		PossibleConditions: []model.Condition{},
		Recommendations:    []string{},
		RedFlags:           []string{},
		Disclaimer:         model.DefaultDisclaimer,
	}

	switch {
	case len(source.PossibleConditions) > 0:
		a.PossibleConditions = append(a.PossibleConditions, source.PossibleConditions...)
	case len(top.Conditions) > 0:
		for _, c := range top.Conditions {
			a.PossibleConditions = append(a.PossibleConditions, model.Condition{
				Condition:  c,
				Likelihood: model.LikelihoodUnknown,
			})
		}
	}

	a.Recommendations = append(a.Recommendations, firstPresent(source.Recommendations, top.Recommendations)...)
	a.RedFlags = append(a.RedFlags, firstPresent(source.RedFlags, top.RedFlags)...)

	if strings.TrimSpace(source.WhenToSeekCare) != "" {
		a.WhenToSeekCare = source.WhenToSeekCare
	}
	if strings.TrimSpace(top.Disclaimer) != "" {
		a.Disclaimer = top.Disclaimer
	}

	return a
}

// firstPresent prefers the source list whenever it was present, even empty.
func firstPresent(source, top []string) []string {
	if source != nil {
		return source
	}
	return top
}
