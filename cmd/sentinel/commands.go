package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"StockSentinel/internal/model"
	"StockSentinel/internal/provider"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "analyze SYMBOL [SYMBOL...]",
		Short:   "Analyze one or more stocks and print the recommendation",
		Example: "  sentinel analyze PETR4 VALE3F",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			results := make([]model.AnalysisResult, 0, len(args))
			var errs []error
			for _, raw := range args {
				res, err := a.svc.Analyze(cmd.Context(), raw)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", raw, err))
					continue
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					printAnalysis(out, res)
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func printAnalysis(w io.Writer, r model.AnalysisResult) {
	fmt.Fprintf(w, "%s  %.2f  (%s", r.Symbol, r.Price, r.DataSource)
	if r.Provider != "" {
		fmt.Fprintf(w, "/%s", r.Provider)
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintf(w, "  holding: %s  new position: %s\n", r.CurrentSignal, r.NewSignal)
	fmt.Fprintf(w, "  rsi %.2f  macd %.4f  trend %s  return %+.2f%%\n", r.RSI, r.MACDHistogram, r.Trend, r.PeriodReturnPct)
	fmt.Fprintf(w, "  stop %.2f  target %.2f\n", r.StopLoss, r.TakeProfit)
	for _, c := range r.Conditions {
		fmt.Fprintf(w, "  - %s\n", c)
	}
	fmt.Fprintln(w)
}

func newCycleCmd(opts *options) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one analysis cycle for all subscribers and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts, notify)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.svc.RunCycle(cmd.Context())
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "cycle %s: %d symbols, %d analyzed, %d failed, %d notified in %s\n",
					report.CycleID, report.Symbols, len(report.Results), len(report.Failures), report.Notified,
					report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
				for _, line := range report.Errors() {
					fmt.Fprintf(out, "  ! %s\n", line)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "send digests through Telegram")
	return cmd
}

func newProvidersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers [SYMBOL...]",
		Short: "Probe every configured data provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			printProbe(cmd.OutOrStdout(), a.svc.ProbeProviders(cmd.Context(), args))
			return nil
		},
	}
}

func printProbe(w io.Writer, results []provider.ProbeResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROVIDER\tSYMBOL\tOK\tBARS\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d\t%s\n", r.Priority, r.Provider, r.Symbol, r.Success, r.Bars, oneLine(r.Error))
	}
	tw.Flush()
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent cycles recorded in SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close()
			if a.sqlite == nil {
				return errors.New("history needs database.sqlite_path")
			}

			cycles, err := a.sqlite.RecentCycles(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CYCLE\tSTARTED\tSYMBOLS\tANALYZED\tFAILED\tNOTIFIED")
			for _, c := range cycles {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", c.ID, c.StartedAt.Local().Format("2006-01-02 15:04:05"), c.Symbols, c.Analyzed, c.Failed, c.Notified)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of cycles to show")
	return cmd
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
