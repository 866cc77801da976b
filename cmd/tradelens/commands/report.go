package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mkarlsen/tradelens/internal/cache"
	"github.com/mkarlsen/tradelens/internal/report"
	"github.com/mkarlsen/tradelens/internal/store"
	"github.com/mkarlsen/tradelens/pkg/config"
	"github.com/mkarlsen/tradelens/pkg/database"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a performance report for a user",
	Long: `Computes and prints a performance report.

Examples:
  go run ./cmd/tradelens report --user 42
  go run ./cmd/tradelens report --user 42 --start 2026-01-01 --end 2026-06-30
  go run ./cmd/tradelens report --user 42 --group-by month`,
	RunE: runReport,
}

var (
	reportUser    int64
	reportStart   string
	reportEnd     string
	reportSymbol  string
	reportSide    string
	reportStatus  string
	reportGroupBy string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Int64Var(&reportUser, "user", 0, "user id (required)")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "end date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportSymbol, "symbol", "", "filter by symbol")
	reportCmd.Flags().StringVar(&reportSide, "side", "", "filter by side (long|short)")
	reportCmd.Flags().StringVar(&reportStatus, "status", "", "filter by status (open|closed|all)")
	reportCmd.Flags().StringVar(&reportGroupBy, "group-by", "", "group buckets (day|week|month|symbol|strategy)")
	_ = reportCmd.MarkFlagRequired("user")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	tradeStore := store.NewRepository(db.Pool)
	resultCache := cache.New(log)
	service := report.NewService(tradeStore, resultCache, log)

	// Reuse the boundary validation the API applies.
	query := url.Values{}
	if reportStart != "" {
		query.Set("start_date", reportStart)
	}
	if reportEnd != "" {
		query.Set("end_date", reportEnd)
	}
	if reportSymbol != "" {
		query.Set("symbol", reportSymbol)
	}
	if reportSide != "" {
		query.Set("side", reportSide)
	}
	if reportStatus != "" {
		query.Set("status", reportStatus)
	}

	spec, err := report.ParseFilterSpec(query)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if reportGroupBy != "" {
		query.Set("group_by", reportGroupBy)
		key, err := report.ParseGroupKey(query)
		if err != nil {
			return err
		}

		grouped, err := service.ComputeGrouped(ctx, reportUser, spec, key)
		if err != nil {
			return err
		}

		printGrouped(grouped)
		return nil
	}

	summary, err := service.ComputePerformance(ctx, reportUser, spec)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(res *report.PerformanceResponse) {
	fmt.Printf("\nPerformance summary (computed %s)\n\n", res.ComputedAt.Format(time.RFC3339))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")

	table.Append("Total trades", fmt.Sprintf("%d", res.TotalTrades))
	table.Append("Open trades", fmt.Sprintf("%d", res.OpenTrades))
	table.Append("Closed trades", fmt.Sprintf("%d", res.ClosedTrades))
	table.Append("Total PnL", fmt.Sprintf("%.2f", res.TotalPnL))
	table.Append("Win rate", fmtRatio(res.WinRate))
	table.Append("Profit factor", fmtProfitFactor(res.ProfitFactor, res.NoLosses))
	table.Append("Expectancy", fmtFloat(res.Expectancy))
	table.Append("Avg win", fmtFloat(res.AvgWin))
	table.Append("Avg loss", fmtFloat(res.AvgLoss))
	table.Append("Largest win", fmtFloat(res.LargestWin))
	table.Append("Largest loss", fmtFloat(res.LargestLoss))
	table.Append("Current streak", fmt.Sprintf("%d", res.CurrentStreak))
	table.Append("Max drawdown", fmt.Sprintf("%.2f%%", res.MaxDrawdown))
	table.Append("Sharpe ratio", fmtFloat(res.SharpeRatio))

	table.Render()
}

func printGrouped(res *report.GroupedResponse) {
	fmt.Printf("\nGrouped by %s (computed %s)\n\n", res.GroupBy, res.ComputedAt.Format(time.RFC3339))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Bucket", "Trades", "Win rate", "PnL", "Max DD", "Streak")

	for _, b := range res.Buckets {
		table.Append(
			b.Bucket,
			fmt.Sprintf("%d", b.Metrics.TotalTrades),
			fmtRatio(b.Metrics.WinRate),
			fmt.Sprintf("%.2f", b.Metrics.TotalPnL),
			fmt.Sprintf("%.2f%%", b.Metrics.MaxDrawdown),
			fmt.Sprintf("%d", b.Metrics.CurrentStreak),
		)
	}

	table.Render()
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func fmtProfitFactor(v *float64, noLosses bool) string {
	if noLosses {
		return "INF (no losses)"
	}
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
