package parser

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/triage/pkg/model"
)

func TestNormalize_FlatShape(t *testing.T) {
	t.Parallel()

	raw := `{"possible_conditions":[{"condition":"Flu","likelihood":"high","reasoning":"fever+cough"}],"recommendations":["Rest"],"red_flags":["Chest pain"]}`

	a, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []model.Condition{{Condition: "Flu", Likelihood: model.LikelihoodHigh, Reasoning: "fever+cough"}}, a.PossibleConditions)
	assert.Equal(t, []string{"Rest"}, a.Recommendations)
	assert.Equal(t, []string{"Chest pain"}, a.RedFlags)
	assert.Empty(t, a.WhenToSeekCare)
	assert.Equal(t, model.DefaultDisclaimer, a.Disclaimer)
}

func TestNormalize_NestedShape(t *testing.T) {
	t.Parallel()

	raw := `{
		"response_type": "assessment",
		"assessment": {
			"possible_conditions": [{"condition": "Common Cold", "likelihood": "Moderate", "reasoning": "timing"}],
			"recommendations": ["Stay hydrated"],
			"red_flags": ["Stiff neck"],
			"when_to_seek_care": "If symptoms worsen"
		},
		"recommendations": ["ignored, nested wins"],
		"disclaimer": "Server disclaimer"
	}`

	a, err := Normalize([]byte(raw))
	require.NoError(t, err)

	require.Len(t, a.PossibleConditions, 1)
	assert.Equal(t, model.LikelihoodModerate, a.PossibleConditions[0].Likelihood)
	assert.Equal(t, []string{"Stay hydrated"}, a.Recommendations)
	assert.Equal(t, []string{"Stiff neck"}, a.RedFlags)
	assert.Equal(t, "If symptoms worsen", a.WhenToSeekCare)
	assert.Equal(t, "Server disclaimer", a.Disclaimer)
}

func TestNormalize_NestedFallsBackToTopLevel(t *testing.T) {
	t.Parallel()

	raw := `{"assessment":{},"conditions":["Migraine","Tension headache"],"recommendations":["Sleep"],"red_flags":["Sudden severe pain"],"when_to_seek_care":"top-level is not a source"}`

	a, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []model.Condition{
		{Condition: "Migraine", Likelihood: model.LikelihoodUnknown},
		{Condition: "Tension headache", Likelihood: model.LikelihoodUnknown},
	}, a.PossibleConditions)
	assert.Equal(t, []string{"Sleep"}, a.Recommendations)
	assert.Equal(t, []string{"Sudden severe pain"}, a.RedFlags)
	assert.Empty(t, a.WhenToSeekCare)
}

func TestNormalize_PresentEmptySourceListWins(t *testing.T) {
	t.Parallel()

	raw := `{"assessment":{"recommendations":[]},"recommendations":["top"]}`

	a, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Empty(t, a.Recommendations)
}

func TestNormalize_EmptyPayloads(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{}`, `null`, `{"disclaimer":"   "}`, `{"assessment":"plain text"}`} {
		t.Run(raw, func(t *testing.T) {
			a, err := Normalize([]byte(raw))
			require.NoError(t, err)

			assert.NotNil(t, a.PossibleConditions)
			assert.Empty(t, a.PossibleConditions)
			assert.Empty(t, a.Recommendations)
			assert.Empty(t, a.RedFlags)
			assert.Empty(t, a.WhenToSeekCare)
			assert.Equal(t, model.DefaultDisclaimer, a.Disclaimer)
		})
	}
}

func TestNormalize_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{"possible_conditions":`, `<html>oops</html>`, ``, `[1,2]`, `"text"`} {
		t.Run(raw, func(t *testing.T) {
			_, err := Normalize([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidResponse))
		})
	}
}

func TestNormalize_UnexpectedMemberTypes(t *testing.T) {
	t.Parallel()

	raw := `{"recommendations":"Rest","red_flags":[1,"Fainting"],"possible_conditions":["Anemia",{"condition":"Dehydration"}]}`

	a, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Empty(t, a.Recommendations)
	assert.Equal(t, []string{"Fainting"}, a.RedFlags)
	assert.Equal(t, []model.Condition{
		{Condition: "Anemia", Likelihood: model.LikelihoodUnknown},
		{Condition: "Dehydration", Likelihood: model.LikelihoodUnknown},
	}, a.PossibleConditions)
}

func TestNormalize_NullAndBlankItemsSkipped(t *testing.T) {
	t.Parallel()

	raw := `{
		"recommendations": [null, "Rest", ""],
		"red_flags": [null],
		"possible_conditions": [null, " ", {"condition": null, "likelihood": "high"}, {"condition": "Flu"}]
	}`

	a, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, []string{"Rest"}, a.Recommendations)
	assert.Empty(t, a.RedFlags)
	assert.Equal(t, []model.Condition{{Condition: "Flu", Likelihood: model.LikelihoodUnknown}}, a.PossibleConditions)
}

func TestNormalize_UnrecognizedLikelihood(t *testing.T) {
	t.Parallel()

	a, err := Normalize([]byte(`{"possible_conditions":[{"condition":"X","likelihood":"extreme","reasoning":""}]}`))
	require.NoError(t, err)

	require.Len(t, a.PossibleConditions, 1)
	assert.Equal(t, model.Likelihood("extreme"), a.PossibleConditions[0].Likelihood)
	assert.Equal(t, model.CategoryNeutral, a.PossibleConditions[0].Likelihood.Category())
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{}`,
		`{"conditions":["Flu"]}`,
		`{"assessment":{"possible_conditions":[{"condition":"Flu","likelihood":"HIGH","reasoning":"r"},{"condition":"Y","likelihood":"extreme"}],"recommendations":["Rest"],"red_flags":[],"when_to_seek_care":"soon"},"disclaimer":"d"}`,
	}

	for _, raw := range inputs {
		first, err := Normalize([]byte(raw))
		require.NoError(t, err)

		encoded, err := json.Marshal(first)
		require.NoError(t, err)

		second, err := Normalize(encoded)
		require.NoError(t, err)
		assert.Equal(t, first, second, "input %s", raw)
	}
}

func TestDecode_Questions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		questions []string
		convID    string
	}{
		{name: "questions with id", raw: `{"response_type":"questions","questions":["Fever?","Duration?"],"conversation_id":"conv_1"}`, questions: []string{"Fever?", "Duration?"}, convID: "conv_1"},
		{name: "questions without id", raw: `{"response_type":"questions","questions":["Fever?"]}`, questions: []string{"Fever?"}},
		{name: "questions tag but empty list", raw: `{"response_type":"questions","questions":[]}`},
		{name: "questions without tag", raw: `{"questions":["Fever?"]}`},
		{name: "only null and blank questions", raw: `{"response_type":"questions","questions":[null,"  "]}`},
		{name: "null question skipped", raw: `{"response_type":"questions","questions":[null,"Fever?"]}`, questions: []string{"Fever?"}},
		{name: "assessment tag", raw: `{"response_type":"assessment","questions":["Fever?"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			if tt.questions == nil {
				assert.Nil(t, resp.Questions)
				return
			}
			require.NotNil(t, resp.Questions)
			assert.Equal(t, tt.questions, resp.Questions.Questions)
			assert.Equal(t, tt.convID, resp.Questions.ConversationID)
		})
	}
}

func TestDecode_ShapeSelection(t *testing.T) {
	t.Parallel()

	resp, err := Decode([]byte(`{"assessment":{"recommendations":["a"]}}`))
	require.NoError(t, err)
	assert.IsType(t, NestedAssessment{}, resp.Shape)

	resp, err = Decode([]byte(`{"assessment":null,"recommendations":["a"]}`))
	require.NoError(t, err)
	assert.IsType(t, FlatAssessment{}, resp.Shape)
}
