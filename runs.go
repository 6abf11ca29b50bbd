package main

import (
	"fmt"
	"text/tabwriter"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/repositories"

	"github.com/spf13/cobra"
)

var (
	runSymbolFlag string
	runLimitFlag  int
)

var (
	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "Inspect backtest runs saved with --save",
	}

	runsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsList,
	}

	runsShowCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "Show a run with its trades and equity curve",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}

	runsDeleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a run and its trades",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsDelete,
	}
)

func runRepository() (*repositories.RunRepository, error) {
	db, err := setupDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	return repositories.NewRunRepository(db), nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	repo, err := runRepository()
	if err != nil {
		return err
	}
	runs, err := repo.ListBySymbol(cmd.Context(), runSymbolFlag, runLimitFlag)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), runs)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tTF\tPERIOD\tTRADES\tWIN%\tFINAL")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s..%s\t%d\t%.1f\t%.2f\n",
			r.ID, r.Symbol, r.TimeFrame,
			r.StartTime.Format(dateLayout), r.EndTime.Format(dateLayout),
			r.TotalTrades, r.WinRate, r.FinalCapital)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	repo, err := runRepository()
	if err != nil {
		return err
	}
	run, err := repo.FindByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s: %w", args[0], models.ErrNoData)
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), run)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run\t%s\n", run.ID)
	fmt.Fprintf(w, "Symbol\t%s %s\n", run.Symbol, run.TimeFrame)
	fmt.Fprintf(w, "Period\t%s..%s\n", run.StartTime.Format(dateLayout), run.EndTime.Format(dateLayout))
	fmt.Fprintf(w, "Capital\t%.2f -> %.2f\n", run.InitialCapital, run.FinalCapital)
	pf := "n/a"
	if run.ProfitFactor != nil {
		pf = fmt.Sprintf("%.2f", *run.ProfitFactor)
	}
	fmt.Fprintf(w, "Trades\t%d (win %.1f%%, profit factor %s)\n", run.TotalTrades, run.WinRate, pf)
	fmt.Fprintf(w, "Sharpe\t%.2f\n", run.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", run.MaxDrawdown)
	if run.Message != "" {
		fmt.Fprintf(w, "Note\t%s\n", run.Message)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SIDE\tENTRY\tEXIT\tREASON\tSIZE\tPNL\tCAPITAL")
	for _, t := range run.Trades {
		fmt.Fprintf(w, "%s\t%s @ %.4f\t%s @ %.4f\t%s\t%.4f\t%.2f\t%.2f\n",
			t.Side,
			t.EntryTime.Format(dateLayout), t.EntryPrice,
			t.ExitTime.Format(dateLayout), t.ExitPrice,
			t.ExitReason, t.Size, t.PnL, t.FinalCapital)
	}
	if len(run.Equity) > 0 {
		fmt.Fprintf(w, "\nEquity points\t%d\n", len(run.Equity))
	}
	return w.Flush()
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	repo, err := runRepository()
	if err != nil {
		return err
	}
	if err := repo.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
	return nil
}
