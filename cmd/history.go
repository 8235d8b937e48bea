package cmd

import (
	"github.com/spf13/cobra"

	"github.com/helmcode/triage/pkg/formatter"
	"github.com/helmcode/triage/pkg/history"
	"github.com/helmcode/triage/pkg/ui"
)

var (
	historyLimit  int
	historyFormat string
	clearYes      bool
)

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past consultations",
		Long: `List the consultations stored by the backend, newest first.

Examples:
  # Last 20 consultations
  triage history

  # Details of one consultation
  triage history show 42

  # Delete everything
  triage history clear`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.PersistentFlags().IntVar(&historyLimit, "limit", 0, "Maximum number of consultations to fetch (default history.limit)")
	cmd.PersistentFlags().StringVarP(&historyFormat, "output", "o", "", "Output format (human, json, yaml)")

	cmd.AddCommand(newHistoryShowCmd(), newHistoryClearCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one past consultation",
		Long: `Show the questions and assessment of one past consultation.

The ID is looked up among the newest consultations: up to 500 of them, or
--limit when it is given.`,
		Args: cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func newHistoryClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored consultations",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}
	cmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newHistoryView(cmd *cobra.Command, env *environment, limit int) *history.View {
	if historyLimit > 0 {
		limit = historyLimit
	}
	return history.NewView(env.client, cmd.OutOrStdout(),
		history.WithLimit(limit),
		history.WithLogger(env.logger.Named("history")),
	)
}

func runHistory(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, historyFormat)
	if err != nil {
		return err
	}
	defer env.close()

	spin := ui.NewSpinner(cmd.ErrOrStderr())
	spin.Start("Loading consultation history...")
	listing := newHistoryView(cmd, env, env.cfg.History.Limit).Load(cmd.Context())
	spin.Stop()

	if env.cfg.Output.Format != formatter.FormatHuman {
		if listing.Status == history.StatusFailed {
			return listing.Err
		}
		return formatter.Encode(cmd.OutOrStdout(), env.cfg.Output.Format, listing.Entries)
	}

	if err := history.Render(cmd.OutOrStdout(), listing); err != nil {
		return err
	}
	if listing.Status == history.StatusFailed {
		return reported(listing.Err)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, historyFormat)
	if err != nil {
		return err
	}
	defer env.close()

	listing := newHistoryView(cmd, env, history.MaxLimit).Load(cmd.Context())
	if listing.Status == history.StatusFailed {
		return listing.Err
	}

	entry, err := history.Find(listing, args[0])
	if err != nil {
		return err
	}
	if env.cfg.Output.Format != formatter.FormatHuman {
		return formatter.Encode(cmd.OutOrStdout(), env.cfg.Output.Format, entry)
	}
	return history.RenderDetail(cmd.OutOrStdout(), entry)
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, historyFormat)
	if err != nil {
		return err
	}
	defer env.close()

	notifier := ui.NewNotifier(cmd.ErrOrStderr())
	prompter := ui.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), clearYes)
	if !prompter.Confirm("Delete all consultation history?") {
		notifier.Error("Cancelled")
		return nil
	}

	if err := newHistoryView(cmd, env, env.cfg.History.Limit).Clear(cmd.Context()); err != nil {
		notifier.Error(err.Error())
		return reported(err)
	}
	notifier.Success("All consultation history cleared")
	return nil
}
