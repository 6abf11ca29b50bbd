package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"SignalTradeBot/config"
	"SignalTradeBot/internal/handlers"
	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/operations/backtest"
	"SignalTradeBot/internal/operations/binance"
	"SignalTradeBot/internal/operations/influx"
	"SignalTradeBot/internal/repositories"
	"SignalTradeBot/internal/services/market"
	"SignalTradeBot/internal/services/sizing"
	"SignalTradeBot/internal/services/strategy"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// shared flags
var (
	symbolsFlag  []string
	intervalFlag string
	sourceFlag   string
	policyFlag   string
)

var (
	fromFlag, toFlag string
	capitalFlag      float64
	riskFlag         float64
	saveFlag         bool

	backtestCmd = &cobra.Command{
		Use:   "backtest",
		Short: "Replay the entry policy over historical bars",
		RunE:  runBacktest,
	}
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Score the latest bars and plan an entry",
	RunE:  runSignal,
}

var (
	timeframesFlag []string
	daysFlag       int
	followFlag     bool

	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Record Binance futures klines into Postgres",
		RunE:  runSync,
	}
)

var (
	pairFlag                      string
	entryFlag, stopFlag, exitFlag float64
	leverageFlag                  int

	lotsCmd = &cobra.Command{
		Use:   "lots",
		Short: "Size a forex position in lots and show the margin it needs",
		RunE:  runLots,
	}
)

func init() {
	for _, c := range []*cobra.Command{backtestCmd, signalCmd} {
		c.Flags().StringSliceVar(&symbolsFlag, "symbols", nil, "symbols to evaluate (default TRADING_SYMBOLS)")
		c.Flags().StringVar(&intervalFlag, "interval", models.PriceTimeFrame1d, "bar interval: 5m, 15m, 1h, 4h, 1d, 1wk")
		c.Flags().StringVar(&sourceFlag, "source", "db", "bar source: db, binance or influx")
		c.Flags().StringVar(&policyFlag, "policy", "", "entry policy YAML (default POLICY_FILE)")
		c.Flags().Float64Var(&capitalFlag, "capital", 0, "account capital (default ACCOUNT_CAPITAL)")
		c.Flags().Float64Var(&riskFlag, "risk", 0, "risk percent per trade (default ACCOUNT_RISK_PERCENT)")
	}

	backtestCmd.Flags().StringVar(&fromFlag, "from", "", "first bar date, YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&toFlag, "to", "", "last bar date, YYYY-MM-DD")
	backtestCmd.Flags().BoolVar(&saveFlag, "save", false, "store runs in Postgres")

	syncCmd.Flags().StringSliceVar(&symbolsFlag, "symbols", nil, "symbols to record (default TRADING_SYMBOLS)")
	syncCmd.Flags().StringSliceVar(&timeframesFlag, "timeframes", []string{models.PriceTimeFrame1h, models.PriceTimeFrame4h, models.PriceTimeFrame1d}, "timeframes to record")
	syncCmd.Flags().IntVar(&daysFlag, "days", 30, "days of history to backfill")
	syncCmd.Flags().BoolVar(&followFlag, "follow", false, "keep recording new bars until interrupted")

	lotsCmd.Flags().StringVar(&pairFlag, "pair", "EURUSD=X", "forex pair")
	lotsCmd.Flags().Float64Var(&entryFlag, "entry", 0, "entry price")
	lotsCmd.Flags().Float64Var(&stopFlag, "stop", 0, "stop-loss price")
	lotsCmd.Flags().Float64Var(&capitalFlag, "capital", 0, "account capital (default ACCOUNT_CAPITAL)")
	lotsCmd.Flags().Float64Var(&riskFlag, "risk", 0, "risk percent (default ACCOUNT_RISK_PERCENT)")
	lotsCmd.Flags().IntVar(&leverageFlag, "leverage", 0, "account leverage (default ACCOUNT_LEVERAGE)")
	lotsCmd.Flags().Float64Var(&exitFlag, "exit", 0, "exit price; reports the profit or loss of the sized position")
	_ = lotsCmd.MarkFlagRequired("entry")
	_ = lotsCmd.MarkFlagRequired("stop")

	policyCmd.Flags().StringVar(&policyFlag, "policy", "", "entry policy YAML (default POLICY_FILE)")

	runsListCmd.Flags().StringVar(&runSymbolFlag, "symbol", "", "only runs of this symbol")
	runsListCmd.Flags().IntVar(&runLimitFlag, "limit", 20, "maximum runs to list")
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
}

func symbols() []string {
	if len(symbolsFlag) > 0 {
		return symbolsFlag
	}
	return cfg.Symbols
}

func account() sizing.Account {
	a := sizing.Account{Capital: cfg.Account.Capital, RiskPercent: cfg.Account.RiskPercent, Leverage: cfg.Account.Leverage}
	if capitalFlag != 0 {
		a.Capital = capitalFlag
	}
	if riskFlag != 0 {
		a.RiskPercent = riskFlag
	}
	if leverageFlag != 0 {
		a.Leverage = leverageFlag
	}
	return a
}

func entryPolicy() (*strategy.EntryPolicy, error) {
	path := policyFlag
	if path == "" {
		path = cfg.PolicyFile
	}
	table, err := config.LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	return strategy.NewEntryPolicy(table), nil
}

// barSource opens the configured bar source. The returned closer releases
// it and is never nil.
func barSource(name string) (backtest.BarSource, func(), error) {
	switch name {
	case "db":
		db, err := setupDatabase(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewPriceRepository(db), func() {}, nil
	case "binance":
		c := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
		if cfg.Exchange.BaseURL != "" {
			c.WithBaseURL(cfg.Exchange.BaseURL)
		}
		return c, func() {}, nil
	case "influx":
		src := influx.NewSource(influx.Config{
			URL:         cfg.Influx.URL,
			Token:       cfg.Influx.Token,
			Org:         cfg.Influx.Org,
			Bucket:      cfg.Influx.Bucket,
			Measurement: cfg.Influx.Measurement,
			Interval:    cfg.Influx.Interval,
		})
		return src, src.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown source %q", models.ErrInvalidInput, name)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", models.ErrInvalidInput, s, err)
	}
	return t, nil
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	serveMetrics(ctx)

	from, err := parseDate(fromFlag)
	if err != nil {
		return err
	}
	to, err := parseDate(toFlag)
	if err != nil {
		return err
	}
	policy, err := entryPolicy()
	if err != nil {
		return err
	}
	src, closeSrc, err := barSource(sourceFlag)
	if err != nil {
		return err
	}
	defer closeSrc()

	var store handlers.RunStore
	if saveFlag {
		db, err := setupDatabase(cfg.Database)
		if err != nil {
			return err
		}
		store = repositories.NewRunRepository(db)
	}

	engine := backtest.NewEngine(
		market.NewCollaborator(market.KeywordSentiment{}),
		backtest.WithPolicy(policy),
		backtest.WithObserver(observer),
		backtest.WithLogger(slog.Default()),
	)
	acct := account()
	outcomes, err := handlers.NewBacktestHandler(engine, src, store).Run(ctx, handlers.BacktestRequest{
		Symbols:     symbols(),
		Interval:    intervalFlag,
		From:        from,
		To:          to,
		Capital:     acct.Capital,
		RiskPercent: acct.RiskPercent,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), outcomes)
	}
	printOutcomes(cmd.OutOrStdout(), outcomes)
	return nil
}

func printOutcomes(out io.Writer, outcomes []handlers.Outcome) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTRADES\tWIN RATE\tPROFIT FACTOR\tSHARPE\tMAX DD\tRETURN\tFINAL\tNOTE")
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		r := o.Report
		fmt.Fprintf(w, "%s\t%d\t%.2f%%\t%s\t%.2f\t%.2f%%\t%.2f%%\t%.2f\t%s\n",
			o.Result.Symbol, r.TotalTrades, r.WinRate, r.ProfitFactorText(),
			r.SharpeRatio, r.MaxDrawdown, r.TotalReturn, r.FinalCapital, o.Result.Message)
	}
	w.Flush()

	for _, o := range outcomes {
		if o.Result == nil || len(o.Report.ByExitReason) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s exits:\n", o.Result.Symbol)
		for _, s := range o.Report.ByExitReason {
			fmt.Fprintf(out, "  %-14s %3d trades, avg P/L %.2f\n", s.Reason, s.Count, s.AveragePnL)
		}
	}
}

func runSignal(cmd *cobra.Command, _ []string) error {
	policy, err := entryPolicy()
	if err != nil {
		return err
	}
	src, closeSrc, err := barSource(sourceFlag)
	if err != nil {
		return err
	}
	defer closeSrc()

	h := handlers.NewStrategyHandler(src, market.NewCollaborator(market.KeywordSentiment{}), policy)
	reports := h.EvaluateAll(cmd.Context(), symbols(), intervalFlag, account())

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), reports)
	}
	out := cmd.OutOrStdout()
	for _, r := range reports {
		fmt.Fprintf(out, "%s %s @ %.5f (%s)\n", r.Symbol, r.Signal.Class, r.Price, r.AsOf.Format(time.DateTime))
		fmt.Fprintf(out, "  score %d, strength %.2f%%, sentiment %.2f\n", r.Signal.Score, r.Signal.Strength, r.Sentiment)
		for _, reason := range r.Signal.Reasons {
			fmt.Fprintf(out, "  - %s\n", reason)
		}
		if r.Plan.Tradeable() {
			fmt.Fprintf(out, "  %s entry %.5f, stop %.5f, target %.5f (R:R %.2f, %s)\n",
				r.Plan.Direction, r.Plan.EntryPrice, r.Plan.StopLoss, r.Plan.TakeProfit, r.Plan.RiskReward, r.Plan.Confidence)
			fmt.Fprintf(out, "  %s\n", r.Plan.Recommendation)
		} else {
			fmt.Fprintf(out, "  NO TRADE: %s\n", r.Plan.Recommendation)
		}
		if r.Sizing != nil {
			fmt.Fprintf(out, "  size %.4f, risk %.2f\n", r.Sizing.PositionSize, r.Sizing.RiskAmount)
		}
	}
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := setupDatabase(cfg.Database)
	if err != nil {
		return err
	}

	client := binance.NewBinanceClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	if cfg.Exchange.BaseURL != "" {
		client.WithBaseURL(cfg.Exchange.BaseURL)
	}
	repo := repositories.NewPriceRepository(db)
	h := handlers.NewPriceHandler(client, repo, symbols())

	results, err := h.Backfill(ctx, timeframesFlag, daysFlag)
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		stored, cerr := repo.CountByTimeFrame(ctx, r.Symbol, r.TimeFrame)
		if cerr != nil {
			slog.Warn("bar count failed", "symbol", r.Symbol, "timeframe", r.TimeFrame, "error", cerr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-4s %6d new  %8d stored  %s\n", r.Symbol, r.TimeFrame, r.Bars, stored, status)
	}
	if err != nil {
		return err
	}

	if followFlag {
		slog.Info("price recording started", "symbols", strings.Join(symbols(), ","))
		h.Follow(ctx, timeframesFlag)
		slog.Info("shutdown complete")
	}
	return nil
}

func runLots(cmd *cobra.Command, _ []string) error {
	acct := account()
	calc := sizing.NewLotCalculator()

	lots, err := calc.Lots(acct, sizing.StopPips(pairFlag, entryFlag, stopFlag), pairFlag)
	if err != nil {
		return err
	}
	margin, err := calc.Margin(lots.StandardLots, acct.Leverage)
	if err != nil {
		return err
	}

	var pl *sizing.ProfitLoss
	if exitFlag != 0 {
		direction := models.DirectionLong
		if stopFlag > entryFlag {
			direction = models.DirectionShort
		}
		v := calc.ProfitLoss(lots.StandardLots, entryFlag, exitFlag, pairFlag, direction)
		pl = &v
	}

	if jsonOutput {
		out := map[string]any{"lots": lots, "margin": margin}
		if pl != nil {
			out["profit_loss"] = pl
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Pair\t%s\n", lots.Pair)
	fmt.Fprintf(w, "Risk amount\t%.2f\n", lots.RiskAmount)
	fmt.Fprintf(w, "Stop distance\t%.1f pips\n", lots.StopPips)
	fmt.Fprintf(w, "Standard lots\t%.2f\n", lots.StandardLots)
	fmt.Fprintf(w, "Mini lots\t%.2f\n", lots.MiniLots)
	fmt.Fprintf(w, "Micro lots\t%.2f\n", lots.MicroLots)
	fmt.Fprintf(w, "Position value\t%.2f\n", lots.PositionValue)
	fmt.Fprintf(w, "Leverage needed\t%.2fx\n", lots.LeverageNeeded)
	fmt.Fprintf(w, "Margin at %dx\t%.2f (keep %.2f free)\n", margin.Leverage, margin.MarginRequired, margin.FreeMargin)
	if pl != nil {
		fmt.Fprintf(w, "Exit at %.5f\t%+.1f pips, P/L %.2f (%.2f%%)\n", exitFlag, pl.Pips, pl.ProfitLoss, pl.ReturnPercent)
	}
	return w.Flush()
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective entry policy table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		policy, err := entryPolicy()
		if err != nil {
			return err
		}
		table := policy.Table()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), table)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(table)
	},
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
