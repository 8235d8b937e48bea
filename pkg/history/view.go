package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/helmcode/triage/pkg/model"
)

const (
	DefaultLimit = 20
	// MaxLimit is the largest page the backend serves.
	MaxLimit = 500
	// PreviewLength is the number of runes of a text assessment shown in a
	// listing.
	PreviewLength = 100
)

var ErrNotFound = errors.New("consultation not found in history")

// Source is the history endpoint.
type Source interface {
	History(ctx context.Context, limit int) ([]byte, error)
	ClearHistory(ctx context.Context) error
}

type Status string

const (
	StatusLoaded Status = "loaded"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Listing is the result of one history load.
type Listing struct {
	Status  Status
	Entries []model.HistoryEntry
	// Err is set when Status is StatusFailed.
	Err error
}

// View loads, renders and clears the consultation history.
type View struct {
	source Source
	out    io.Writer
	limit  int
	logger *zap.Logger
}

type Option func(*View)

func WithLimit(limit int) Option {
	return func(v *View) {
		if limit > 0 {
			v.limit = limit
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(v *View) { v.logger = l }
}

// NewView creates a history view that renders refreshes to out.
func NewView(source Source, out io.Writer, opts ...Option) *View {
	v := &View{
		source: source,
		out:    out,
		limit:  DefaultLimit,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the history. It never returns an error: failures are reported
// as a StatusFailed listing.
func (v *View) Load(ctx context.Context) Listing {
	body, err := v.source.History(ctx, v.limit)
	if err != nil {
		v.logger.Warn("history request failed", zap.Error(err))
		return Listing{Status: StatusFailed, Err: err}
	}

	entries, err := decodeEntries(body)
	if err != nil {
		v.logger.Warn("history body rejected", zap.Error(err), zap.Int("bytes", len(body)))
		return Listing{Status: StatusFailed, Err: err}
	}
	if len(entries) == 0 {
		v.logger.Debug("history empty")
		return Listing{Status: StatusEmpty, Entries: []model.HistoryEntry{}}
	}

	v.logger.Debug("history loaded", zap.Int("entries", len(entries)))
	return Listing{Status: StatusLoaded, Entries: entries}
}

// Refresh reloads and renders the history. Its failures end up in the failed
// placeholder and are not returned.
func (v *View) Refresh(ctx context.Context) {
	if err := Render(v.out, v.Load(ctx)); err != nil {
		v.logger.Warn("render history failed", zap.Error(err))
	}
}

// Clear deletes all stored consultations on the server.
func (v *View) Clear(ctx context.Context) error {
	if err := v.source.ClearHistory(ctx); err != nil {
		v.logger.Warn("clear history failed", zap.Error(err))
		return fmt.Errorf("clear history: %w", err)
	}
	v.logger.Info("history cleared")
	return nil
}

// Find returns the entry with the given id.
func Find(listing Listing, id string) (model.HistoryEntry, error) {
	id = strings.TrimSpace(id)
	for _, e := range listing.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return model.HistoryEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Summary derives the one-line assessment summary of an entry. ok is false
// when the entry has no summary line at all.
func Summary(e model.HistoryEntry) (label, text string, ok bool) {
	switch e.Assessment.Kind {
	case model.HistoryAssessmentObject:
		if len(e.Assessment.ConditionNames) == 0 {
			return "", "", false
		}
		return "Conditions assessed:", strings.Join(e.Assessment.ConditionNames, ", "), true
	case model.HistoryAssessmentText:
		return "Assessment:", preview(e.Assessment.Text, PreviewLength), true
	default:
		return "", "", false
	}
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " ") + "..."
}

// Render prints a listing: the entries, the empty placeholder or the failure
// placeholder.
func Render(w io.Writer, listing Listing) error {
	switch listing.Status {
	case StatusFailed:
		red := color.New(color.FgRed, color.Bold)
		if _, err := red.Fprintln(w, "✗ Unable to load consultation history"); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "  %s\n", color.RedString("Please check your connection and try again"))
		return err
	case StatusEmpty:
		if _, err := fmt.Fprintln(w, "No consultation history yet"); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "  %s\n", color.HiBlackString("Start a consultation to see your history here"))
		return err
	}

	bold := color.New(color.Bold)
	for _, e := range listing.Entries {
		fmt.Fprintf(w, "📅 %s  %s  %s\n",
			when(e),
			color.CyanString("💬 %s", e.ConsultationType),
			color.HiBlackString("#%s", e.ID),
		)
		bold.Fprint(w, "Initial Symptoms: ")
		fmt.Fprintln(w, e.Symptoms)
		if label, text, ok := Summary(e); ok {
			bold.Fprint(w, label+" ")
			fmt.Fprintln(w, text)
		}
		fmt.Fprintf(w, "❓ %d questions asked\n", e.QuestionCount())
		if _, err := fmt.Fprintln(w, strings.Repeat("─", 60)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s\n", color.HiBlackString("Run 'triage history show ID' to view details"))
	return err
}

// RenderDetail prints one entry in full.
func RenderDetail(w io.Writer, e model.HistoryEntry) error {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "💬 %s #%s\n", e.ConsultationType, e.ID)
	fmt.Fprintf(w, "📅 %s\n", when(e))
	if e.ConversationID != "" {
		fmt.Fprintf(w, "   Conversation: %s\n", color.HiBlackString(e.ConversationID))
	}
	fmt.Fprintln(w)

	bold.Fprintln(w, "Initial Symptoms:")
	fmt.Fprintf(w, "   %s\n\n", e.Symptoms)

	if len(e.Questions) > 0 {
		bold.Fprintln(w, "Questions Asked:")
		for i, q := range e.Questions {
			fmt.Fprintf(w, "   %d. %s\n", i+1, q)
		}
		fmt.Fprintln(w)
	}

	switch e.Assessment.Kind {
	case model.HistoryAssessmentObject:
		if len(e.Assessment.ConditionNames) > 0 {
			bold.Fprintln(w, "Conditions Assessed:")
			for _, name := range e.Assessment.ConditionNames {
				fmt.Fprintf(w, "   • %s\n", name)
			}
		}
	case model.HistoryAssessmentText:
		bold.Fprintln(w, "Assessment:")
		fmt.Fprintf(w, "   %s\n", e.Assessment.Text)
	}

	_, err := fmt.Fprintf(w, "\n%s\n", color.HiBlackString(model.DefaultDisclaimer))
	return err
}

func when(e model.HistoryEntry) string {
	if e.CreatedAt.IsZero() {
		if e.CreatedAtRaw == "" {
			return "unknown date"
		}
		return e.CreatedAtRaw
	}
	return e.CreatedAt.Format("2006-01-02 at 15:04:05")
}
