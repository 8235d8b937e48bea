package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/triage/pkg/model"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Printer renders questions and assessments in one output format.
type Printer struct {
	out    io.Writer
	format string
}

func NewPrinter(out io.Writer, format string) *Printer {
	return &Printer{out: out, format: strings.ToLower(format)}
}

// RenderQuestions shows the follow-up questions of a new consultation.
func (p *Printer) RenderQuestions(questions []string) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return Encode(p.out, p.format, struct {
			Questions []string `json:"questions" yaml:"questions"`
		}{questions})
	default:
		return displayQuestions(p.out, questions)
	}
}

// RenderAssessment shows a final result.
func (p *Printer) RenderAssessment(a *model.Assessment) error {
	switch p.format {
	case FormatJSON, FormatYAML:
		return Encode(p.out, p.format, a)
	default:
		return displayHuman(p.out, a)
	}
}

// Encode writes v as indented JSON or as YAML.
func Encode(w io.Writer, format string, v any) error {
	var (
		output []byte
		err    error
	)
	switch format {
	case FormatYAML:
		output, err = yaml.Marshal(v)
	default:
		output, err = json.MarshalIndent(v, "", "  ")
		output = append(output, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	_, err = w.Write(output)
	return err
}

func displayQuestions(w io.Writer, questions []string) error {
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "❓ FOLLOW-UP QUESTIONS:")
	for i, q := range questions {
		fmt.Fprintf(w, "   %d. %s\n", i+1, q)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func displayHuman(w io.Writer, a *model.Assessment) error {
	blue := color.New(color.FgBlue, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)

	blue.Fprintln(w, "🩺 POSSIBLE CONDITIONS:")
	if len(a.PossibleConditions) == 0 {
		fmt.Fprintf(w, "   %s\n", color.HiBlackString("No specific conditions identified."))
	}
	for i, c := range a.PossibleConditions {
		badge := likelihoodColor(c.Likelihood.Category())
		fmt.Fprintf(w, "   %d. %s %s  %s\n", i+1, likelihoodIcon(c.Likelihood.Category()), c.Condition,
			badge.Sprintf("%s likelihood", c.Likelihood))
		if c.Reasoning != "" {
			fmt.Fprintln(w, wrapText(c.Reasoning, 80, "      "))
		}
	}
	fmt.Fprintln(w)

	green.Fprintln(w, "💊 RECOMMENDATIONS:")
	if len(a.Recommendations) == 0 {
		fmt.Fprintf(w, "   %s\n", color.HiBlackString("No specific recommendations at this time."))
	}
	for i, r := range a.Recommendations {
		fmt.Fprintf(w, "   %d. %s\n", i+1, color.GreenString(r))
	}
	fmt.Fprintln(w)

	if len(a.RedFlags) > 0 {
		red.Fprintln(w, "⚠️  Seek Immediate Care If:")
		for _, flag := range a.RedFlags {
			fmt.Fprintf(w, "   • %s\n", color.RedString(flag))
		}
		fmt.Fprintln(w)
	}

	if a.WhenToSeekCare != "" {
		yellow.Fprintln(w, "🏥 When to Seek Medical Care:")
		fmt.Fprintln(w, wrapText(a.WhenToSeekCare, 80, "   "))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	disclaimer := a.Disclaimer
	if strings.TrimSpace(disclaimer) == "" {
		disclaimer = model.DefaultDisclaimer
	}
	_, err := fmt.Fprintf(w, "ℹ️  %s\n", color.HiBlackString(disclaimer))
	return err
}

func likelihoodColor(c model.Category) *color.Color {
	switch c {
	case model.CategoryHigh:
		return color.New(color.FgRed)
	case model.CategoryModerate:
		return color.New(color.FgYellow)
	case model.CategoryLow:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func likelihoodIcon(c model.Category) string {
	switch c {
	case model.CategoryHigh:
		return "🔴"
	case model.CategoryModerate:
		return "🟡"
	case model.CategoryLow:
		return "🟢"
	default:
		return "⚪"
	}
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder

	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			switch {
			case len(currentLine)+len(word)+1 > width && currentLine != indent:
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			case currentLine == indent:
				currentLine += word
			default:
				currentLine += " " + word
			}
		}
		result.WriteString(currentLine + "\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
