package consultation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/helmcode/triage/pkg/model"
	"github.com/helmcode/triage/pkg/parser"
)

const partialAnswersPrompt = "Some questions are not answered. Would you like to proceed anyway?"

// Phase is the state of the conversation state machine.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseAwaitingFollowup Phase = "awaiting_followup"
)

// Analyzer is the symptom-analysis endpoint. It returns the raw body of a
// successful (2xx) response.
type Analyzer interface {
	AnalyzeSymptoms(ctx context.Context, req model.AnalyzeRequest) ([]byte, error)
}

// Renderer shows questions and assessments to the user.
type Renderer interface {
	RenderQuestions(questions []string) error
	RenderAssessment(a *model.Assessment) error
}

// Confirmer asks the user an accept/cancel question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Indicator is the loading state. Submission controls are disabled between
// Start and Stop.
type Indicator interface {
	Start(label string)
	Stop()
}

// Notifier reports an error message to the user.
type Notifier interface {
	Error(msg string)
}

type HistoryRefresher interface {
	Refresh(ctx context.Context)
}

// AnswerSource reads the answer currently entered for a question.
type AnswerSource interface {
	Answer(index int) (string, bool)
}

// Answers is an AnswerSource backed by a slice.
type Answers []string

func (a Answers) Answer(index int) (string, bool) {
	if index < 0 || index >= len(a) {
		return "", false
	}
	return a[index], true
}

type ResetReason string

const (
	ResetBack  ResetReason = "back"
	ResetClear ResetReason = "clear"
)

// Command is a user action dispatched into the controller.
type Command interface {
	command()
}

type Submit struct {
	Symptoms string
}

type SubmitFollowup struct {
	Answers AnswerSource
}

type SetAnswer struct {
	Index int
	Text  string
}

type Reset struct {
	Reason ResetReason
}

func (Submit) command()         {}
func (SubmitFollowup) command() {}
func (SetAnswer) command()      {}
func (Reset) command()          {}

// Outcome describes the controller after a command.
type Outcome struct {
	Phase        Phase
	Consultation Consultation
	// Assessment is set when a result was rendered.
	Assessment *model.Assessment
	// Submitted holds the answers sent with a followup.
	Submitted []model.FollowupAnswer
	// Declined is set when the user refused to send partial answers.
	Declined bool
}

// Deps are the collaborators of a Controller. History may be nil.
type Deps struct {
	Analyzer  Analyzer
	Renderer  Renderer
	Confirmer Confirmer
	Indicator Indicator
	Notifier  Notifier
	History   HistoryRefresher
	Logger    *zap.Logger
}

// Controller drives one consultation at a time. It is a sequential event
// handler and must not be used from several goroutines.
type Controller struct {
	state     *State
	analyzer  Analyzer
	renderer  Renderer
	confirmer Confirmer
	indicator Indicator
	notifier  Notifier
	history   HistoryRefresher
	logger    *zap.Logger
	busy      bool
}

func NewController(state *State, deps Deps) *Controller {
	c := &Controller{
		state:     state,
		analyzer:  deps.Analyzer,
		renderer:  deps.Renderer,
		confirmer: deps.Confirmer,
		indicator: deps.Indicator,
		notifier:  deps.Notifier,
		history:   deps.History,
		logger:    deps.Logger,
	}
	if c.state == nil {
		c.state = NewState()
	}
	if c.confirmer == nil {
		c.confirmer = declineAll{}
	}
	if c.indicator == nil {
		c.indicator = nopIndicator{}
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func (c *Controller) Phase() Phase {
	if c.state.Active() {
		return PhaseAwaitingFollowup
	}
	return PhaseIdle
}

func (c *Controller) Consultation() Consultation {
	return c.state.Current()
}

// Dispatch runs a command. Every failure is reported through the Notifier
// before it is returned.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	switch cmd := cmd.(type) {
	case Submit:
		return c.submit(ctx, cmd.Symptoms)
	case SubmitFollowup:
		return c.submitFollowup(ctx, cmd.Answers)
	case SetAnswer:
		c.state.SetAnswer(cmd.Index, cmd.Text)
		return c.outcome(), nil
	case Reset:
		c.state.Reset()
		c.logger.Info("consultation reset", zap.String("reason", string(cmd.Reason)))
		return c.outcome(), nil
	default:
		return c.outcome(), errors.New("unknown command")
	}
}

func (c *Controller) submit(ctx context.Context, symptoms string) (Outcome, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return c.fail(ErrEmptySymptoms)
	}
	if c.busy {
		return c.outcome(), ErrBusy
	}

	resp, err := c.roundTrip(ctx, "Starting consultation...", model.AnalyzeRequest{
		Symptoms:            symptoms,
		ConversationHistory: []model.FollowupAnswer{},
		IsFollowup:          false,
	})
	if err != nil {
		return c.fail(err)
	}

	if resp.Questions != nil {
		consultation := c.state.Begin(symptoms, resp.Questions.Questions, resp.Questions.ConversationID)
		c.logger.Info("consultation started",
			zap.String("conversation_id", consultation.ConversationID),
			zap.Int("questions", len(consultation.Questions)),
		)
		if err := c.renderer.RenderQuestions(consultation.Questions); err != nil {
			c.logger.Error("render questions failed", zap.Error(err))
			return c.fail(err)
		}
		return c.outcome(), nil
	}

	// A direct result supersedes any consultation still waiting for answers.
	c.state.Reset()

	assessment := parser.NormalizeShape(resp.Shape)
	out := c.outcome()
	out.Assessment = &assessment
	if err := c.renderer.RenderAssessment(&assessment); err != nil {
		c.logger.Error("render assessment failed", zap.Error(err))
		return out, c.report(err)
	}
	return out, nil
}

func (c *Controller) submitFollowup(ctx context.Context, source AnswerSource) (Outcome, error) {
	current := c.state.Current()
	if !current.IsActive || current.ConversationID == "" {
		return c.fail(ErrNoActiveConsultation)
	}
	if c.busy {
		return c.outcome(), ErrBusy
	}

	answers, missing := c.collectAnswers(current, source)
	if missing && !c.confirmer.Confirm(partialAnswersPrompt) {
		c.logger.Info("followup submission declined", zap.String("conversation_id", current.ConversationID))
		out := c.outcome()
		out.Declined = true
		return out, nil
	}

	resp, err := c.roundTrip(ctx, "Analyzing your answers...", model.AnalyzeRequest{
		Symptoms:            current.InitialSymptoms,
		ConversationHistory: answers,
		IsFollowup:          true,
	})
	if err != nil {
		return c.fail(err)
	}

	assessment := parser.NormalizeShape(resp.Shape)
	renderErr := c.renderer.RenderAssessment(&assessment)

	c.state.Reset()
	c.logger.Info("consultation completed",
		zap.String("conversation_id", current.ConversationID),
		zap.Int("answers", len(answers)),
		zap.Bool("partial", missing),
	)

	if c.history != nil {
		c.history.Refresh(ctx)
	}

	out := c.outcome()
	out.Assessment = &assessment
	out.Submitted = answers
	if renderErr != nil {
		c.logger.Error("render assessment failed", zap.Error(renderErr))
		return out, c.report(renderErr)
	}
	return out, nil
}

// collectAnswers reads every answer live from source, falling back to the
// cached value, and marks blanks with model.NoAnswerProvided.
func (c *Controller) collectAnswers(current Consultation, source AnswerSource) ([]model.FollowupAnswer, bool) {
	answers := make([]model.FollowupAnswer, 0, len(current.Questions))
	missing := false

	for i, question := range current.Questions {
		text := current.Answers[i]
		if source != nil {
			if live, ok := source.Answer(i); ok {
				text = live
			}
		}
		text = strings.TrimSpace(text)

		if text == "" {
			missing = true
			text = model.NoAnswerProvided
		}
		answers = append(answers, model.FollowupAnswer{Question: question, Answer: text})
	}
	return answers, missing
}

// roundTrip calls the analyzer with the loading indicator held for the whole
// request.
func (c *Controller) roundTrip(ctx context.Context, label string, req model.AnalyzeRequest) (*parser.Response, error) {
	c.busy = true
	c.indicator.Start(label)
	defer func() {
		c.indicator.Stop()
		c.busy = false
	}()

	body, err := c.analyzer.AnalyzeSymptoms(ctx, req)
	if err != nil {
		return nil, &TransportError{Op: "analyze symptoms", Err: err}
	}

	resp, err := parser.Decode(body)
	if err != nil {
		return nil, &MalformedResponseError{Op: "analyze symptoms", Err: err}
	}
	return resp, nil
}

func (c *Controller) fail(err error) (Outcome, error) {
	return c.outcome(), c.report(err)
}

func (c *Controller) report(err error) error {
	c.logger.Warn("consultation step failed", zap.Error(err), zap.String("phase", string(c.Phase())))
	c.notifier.Error(UserMessage(err))
	return err
}

func (c *Controller) outcome() Outcome {
	return Outcome{Phase: c.Phase(), Consultation: c.state.Current()}
}

type declineAll struct{}

func (declineAll) Confirm(string) bool { return false }

type nopIndicator struct{}

func (nopIndicator) Start(string) {}
func (nopIndicator) Stop()        {}

type nopNotifier struct{}

func (nopNotifier) Error(string) {}
