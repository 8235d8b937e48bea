package formatter

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/triage/pkg/model"
	"github.com/helmcode/triage/pkg/parser"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestRenderAssessment_Human(t *testing.T) {
	t.Parallel()

	a := &model.Assessment{
		PossibleConditions: []model.Condition{
			{Condition: "Flu", Likelihood: model.LikelihoodHigh, Reasoning: "fever+cough"},
			{Condition: "Mystery", Likelihood: model.ParseLikelihood("extreme")},
		},
		Recommendations: []string{"Rest"},
		RedFlags:        []string{"Chest pain"},
		WhenToSeekCare:  "If symptoms last more than a week.",
		Disclaimer:      model.DefaultDisclaimer,
	}

	var out bytes.Buffer
	require.NoError(t, NewPrinter(&out, FormatHuman).RenderAssessment(a))
	s := out.String()

	assert.Contains(t, s, "1. 🔴 Flu  high likelihood")
	assert.Contains(t, s, "fever+cough")
	assert.Contains(t, s, "2. ⚪ Mystery  extreme likelihood")
	assert.Contains(t, s, "1. Rest")
	assert.Contains(t, s, "Seek Immediate Care If:")
	assert.Contains(t, s, "• Chest pain")
	assert.Contains(t, s, "If symptoms last more than a week.")
	assert.Contains(t, s, model.DefaultDisclaimer)
}

func TestRenderAssessment_EmptyFallbacks(t *testing.T) {
	t.Parallel()

	a, err := parser.Normalize([]byte(`{}`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, NewPrinter(&out, FormatHuman).RenderAssessment(a))
	s := out.String()

	assert.Contains(t, s, "No specific conditions identified.")
	assert.Contains(t, s, "No specific recommendations at this time.")
	assert.NotContains(t, s, "Seek Immediate Care If:")
	assert.NotContains(t, s, "When to Seek Medical Care")
	assert.Contains(t, s, model.DefaultDisclaimer)
}

func TestRenderAssessment_BlankDisclaimerStillShown(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, NewPrinter(&out, FormatHuman).RenderAssessment(&model.Assessment{}))
	assert.Contains(t, out.String(), model.DefaultDisclaimer)
}

func TestRenderAssessment_Machine(t *testing.T) {
	t.Parallel()

	a := &model.Assessment{
		PossibleConditions: []model.Condition{{Condition: "Flu", Likelihood: model.LikelihoodHigh}},
		Recommendations:    []string{"Rest"},
		RedFlags:           []string{},
		Disclaimer:         "d",
	}

	var js bytes.Buffer
	require.NoError(t, NewPrinter(&js, "JSON").RenderAssessment(a))
	var fromJSON model.Assessment
	require.NoError(t, json.Unmarshal(js.Bytes(), &fromJSON))
	assert.Equal(t, *a, fromJSON)

	var ym bytes.Buffer
	require.NoError(t, NewPrinter(&ym, FormatYAML).RenderAssessment(a))
	assert.Contains(t, ym.String(), "possible_conditions:")
	assert.Contains(t, ym.String(), "condition: Flu")
}

func TestRenderQuestions(t *testing.T) {
	t.Parallel()

	var human bytes.Buffer
	require.NoError(t, NewPrinter(&human, FormatHuman).RenderQuestions([]string{"Fever?", "Duration?"}))
	assert.Contains(t, human.String(), "1. Fever?")
	assert.Contains(t, human.String(), "2. Duration?")

	var ym bytes.Buffer
	require.NoError(t, NewPrinter(&ym, FormatYAML).RenderQuestions([]string{"Fever?"}))
	var decoded struct {
		Questions []string `yaml:"questions"`
	}
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &decoded))
	assert.Equal(t, []string{"Fever?"}, decoded.Questions)
}

func TestWrapText(t *testing.T) {
	t.Parallel()

	wrapped := wrapText(strings.Repeat("word ", 30), 20, "  ")
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 20)
		assert.True(t, strings.HasPrefix(line, "  "))
	}
}
