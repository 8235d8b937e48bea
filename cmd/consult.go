package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helmcode/triage/pkg/consultation"
	"github.com/helmcode/triage/pkg/formatter"
	"github.com/helmcode/triage/pkg/history"
	"github.com/helmcode/triage/pkg/ui"
)

var (
	scriptedAnswers []string
	assumeYes       bool
	outputFormat    string
)

var errDeclined = errors.New("submission cancelled: some questions are not answered")

func NewConsultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consult [SYMPTOMS]",
		Short: "Start a symptom consultation",
		Long: `Describe your symptoms, answer the follow-up questions and get an
educational assessment of possible conditions.

While answering, leave a line blank to skip a question, type /back to start
over or /clear to discard the consultation.

Examples:
  # Interactive consultation
  triage consult

  # Answer the follow-up questions from the command line
  triage consult "headache and fever since yesterday" -a "yes, 38.5C" -a "two days"

  # Machine-readable result, accepting unanswered questions
  triage consult "sore throat" -a "" -y -o json`,
		RunE: runConsult,
	}

	cmd.Flags().StringArrayVarP(&scriptedAnswers, "answer", "a", nil, "Answer to the next follow-up question (repeatable)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Submit even when some questions are not answered")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format (human, json, yaml)")

	return cmd
}

func runConsult(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, outputFormat)
	if err != nil {
		return err
	}
	defer env.close()

	out := cmd.OutOrStdout()
	prompts := cmd.ErrOrStderr()
	format := env.cfg.Output.Format

	prompter := ui.NewPrompter(cmd.InOrStdin(), prompts, assumeYes)
	deps := consultation.Deps{
		Analyzer:  env.client,
		Renderer:  formatter.NewPrinter(out, format),
		Confirmer: prompter,
		Indicator: ui.NewSpinner(prompts),
		Notifier:  ui.NewNotifier(prompts),
		Logger:    env.logger.Named("consultation"),
	}
	// History output would break machine-readable results.
	if env.cfg.History.RefreshAfterConsult && format == formatter.FormatHuman {
		deps.History = &historyRefresh{
			view: history.NewView(env.client, out,
				history.WithLimit(env.cfg.History.Limit),
				history.WithLogger(env.logger.Named("history"))),
			out: out,
		}
	}

	s := &session{
		ctrl:     consultation.NewController(consultation.NewState(), deps),
		prompter: prompter,
		prompts:  prompts,
		logger:   env.logger,
	}
	if cmd.Flags().Changed("answer") {
		s.scripted = scriptedAnswers
	}

	if format == formatter.FormatHuman && len(args) == 0 {
		printHeader(prompts)
	}
	return s.run(cmd.Context(), strings.Join(args, " "))
}

// session feeds terminal input into the controller.
type session struct {
	ctrl     *consultation.Controller
	prompter *ui.Prompter
	prompts  io.Writer
	logger   *zap.Logger
	// scripted answers replace the interactive questions when set.
	scripted []string
}

type step int

const (
	stepDone step = iota
	stepRestart
)

func (s *session) run(ctx context.Context, symptoms string) error {
	for {
		if strings.TrimSpace(symptoms) == "" && s.scripted == nil {
			line, ok := s.prompter.Line(color.CyanString("Describe your symptoms"))
			if !ok {
				return nil
			}
			symptoms = line
		}

		out, err := s.ctrl.Dispatch(ctx, consultation.Submit{Symptoms: symptoms})
		symptoms = ""
		if err != nil {
			var verr *consultation.ValidationError
			if errors.As(err, &verr) && s.scripted == nil {
				continue
			}
			return reported(err)
		}
		if out.Phase == consultation.PhaseIdle {
			return nil
		}

		next, err := s.followup(ctx, out.Consultation)
		if err != nil || next == stepDone {
			return err
		}
	}
}

func (s *session) followup(ctx context.Context, c consultation.Consultation) (step, error) {
	answers := make(consultation.Answers, len(c.Questions))

	if s.scripted != nil {
		copy(answers, s.scripted)
		if len(s.scripted) > len(answers) {
			s.logger.Warn("extra answers ignored", zap.Int("answers", len(s.scripted)), zap.Int("questions", len(answers)))
		}
	} else {
		fmt.Fprintln(s.prompts, color.HiBlackString("Leave blank to skip, /back to start over, /clear to discard."))
		for i := range c.Questions {
			next, ok := s.ask(ctx, c, answers, i)
			if !ok {
				return next, nil
			}
		}
	}

	for {
		out, err := s.ctrl.Dispatch(ctx, consultation.SubmitFollowup{Answers: answers})
		if err != nil {
			if s.retry(err) {
				continue
			}
			return stepDone, reported(err)
		}
		if !out.Declined {
			return stepDone, nil
		}
		if s.scripted != nil {
			return stepDone, errDeclined
		}

		for i := range c.Questions {
			if strings.TrimSpace(answers[i]) != "" {
				continue
			}
			next, ok := s.ask(ctx, c, answers, i)
			if !ok {
				return next, nil
			}
		}
	}
}

// retry offers to resend answers after a failed round trip. The
// consultation is still active at that point.
func (s *session) retry(err error) bool {
	if s.scripted != nil {
		return false
	}
	var terr *consultation.TransportError
	var merr *consultation.MalformedResponseError
	if !errors.As(err, &terr) && !errors.As(err, &merr) {
		return false
	}
	if s.prompter.Ask("Retry sending your answers?") {
		s.logger.Info("retrying followup submission", zap.Error(err))
		return true
	}
	return false
}

// ask reads the answer to question i. ok is false when the consultation was
// left: the returned step tells whether to start over.
func (s *session) ask(ctx context.Context, c consultation.Consultation, answers consultation.Answers, i int) (step, bool) {
	text, ok := s.prompter.Line(fmt.Sprintf("%d. %s", i+1, c.Questions[i]))
	if !ok {
		s.ctrl.Dispatch(ctx, consultation.Reset{Reason: consultation.ResetClear})
		return stepDone, false
	}

	switch strings.ToLower(text) {
	case "/back":
		s.ctrl.Dispatch(ctx, consultation.Reset{Reason: consultation.ResetBack})
		return stepRestart, false
	case "/clear":
		s.ctrl.Dispatch(ctx, consultation.Reset{Reason: consultation.ResetClear})
		fmt.Fprintln(s.prompts, color.HiBlackString("Consultation discarded."))
		return stepRestart, false
	}

	answers[i] = text
	s.ctrl.Dispatch(ctx, consultation.SetAnswer{Index: i, Text: text})
	return stepDone, true
}

// historyRefresh prints the refreshed history below a result.
type historyRefresh struct {
	view *history.View
	out  io.Writer
}

func (h *historyRefresh) Refresh(ctx context.Context) {
	fmt.Fprintln(h.out)
	color.New(color.FgCyan, color.Bold).Fprintln(h.out, "📚 CONSULTATION HISTORY:")
	h.view.Refresh(ctx)
}

func printHeader(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "🩺 Symptom Triage")
	fmt.Fprintln(w, color.HiBlackString("For educational purposes only. In an emergency, call your local emergency number."))
	fmt.Fprintln(w)
}
