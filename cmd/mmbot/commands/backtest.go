package commands

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mm-engine/mmbot/internal/config"
	"github.com/mm-engine/mmbot/internal/quoting"
	"github.com/mm-engine/mmbot/internal/signals"
)

// backtestResult is a rough PnL sanity check, not a research-grade
// simulator: see SPEC_FULL.md's Non-goals.
type backtestResult struct {
	PnL      float64
	Sharpe   float64
	Trades   int
	Turnover float64
}

func newBacktestCmd() *cobra.Command {
	var steps int
	var output string

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a vectorized PnL sanity backtest over a synthetic price path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			result := vectorizedBacktest(*cfg, steps)
			if err := writeBacktestCSV(output, result); err != nil {
				return fmt.Errorf("write backtest csv: %w", err)
			}
			fmt.Println(renderBacktestSummary(result, output))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 200, "number of synthetic price steps to simulate")
	cmd.Flags().StringVar(&output, "output", "backtest.csv", "path to write the result summary as CSV")
	return cmd
}

func simulatePrices(steps int, start float64) []float64 {
	prices := make([]float64, 0, steps)
	prices = append(prices, start)
	for i := 1; i < steps; i++ {
		drift := rand.Float64()*100 - 50
		next := prices[len(prices)-1] + drift
		if next < 1 {
			next = 1
		}
		prices = append(prices, next)
	}
	return prices
}

func annualizedSharpe(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	denom := len(returns) - 1
	if denom < 1 {
		denom = 1
	}
	variance /= float64(denom)
	if variance == 0 {
		return 0
	}
	return (mean / math.Sqrt(variance)) * math.Sqrt(float64(periodsPerYear))
}

// vectorizedBacktest reruns the Avellaneda-Stoikov model against a
// synthetic random-walk price path for the first configured symbol,
// crossing each quote against a coin-flip fill. It exists to sanity
// check parameter changes, not to forecast live PnL.
func vectorizedBacktest(cfg config.Config, steps int) backtestResult {
	symbol := cfg.Symbols[0]
	model := quoting.NewModel(cfg.Quote.Gamma, cfg.Quote.HorizonSeconds, cfg.Quote.Kappa, cfg.Quote.MinSpread, cfg.Quote.SkewAlpha)
	micro := signals.NewMicrostructureSignals()

	prices := simulatePrices(steps, 30000)
	var inventory, pnl, turnover float64
	var trades int
	returns := make([]float64, 0, len(prices))

	for _, price := range prices {
		sigma := 0.02
		feature := micro.Get(symbol.Name)
		quote := model.GenerateQuotes(price, price, inventory, sigma, feature.OrderFlowImbalance, feature.QueueImbalance, 0, symbol.TickSize)

		fillPrice := quote.Bid
		signed := symbol.LotSize
		if rand.Float64() <= 0.5 {
			fillPrice = quote.Ask
			signed = -symbol.LotSize
		}
		inventory += signed
		pnl -= signed * fillPrice
		turnover += math.Abs(signed * fillPrice)
		trades++
		returns = append(returns, (price-prices[0])/prices[0])
	}

	pnl += inventory * prices[len(prices)-1]
	return backtestResult{
		PnL:      pnl,
		Sharpe:   annualizedSharpe(returns, 365*24),
		Trades:   trades,
		Turnover: turnover,
	}
}

func writeBacktestCSV(path string, result backtestResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"pnl", "sharpe", "trades", "turnover"}); err != nil {
		return err
	}
	return w.Write([]string{
		strconv.FormatFloat(result.PnL, 'f', 6, 64),
		strconv.FormatFloat(result.Sharpe, 'f', 6, 64),
		strconv.Itoa(result.Trades),
		strconv.FormatFloat(result.Turnover, 'f', 6, 64),
	})
}

func renderBacktestSummary(result backtestResult, output string) string {
	label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	body := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s %s\n%s %s",
		label.Render("PnL:"), value.Render(fmt.Sprintf("%.2f", result.PnL)),
		label.Render("Sharpe:"), value.Render(fmt.Sprintf("%.2f", result.Sharpe)),
		label.Render("Trades:"), value.Render(strconv.Itoa(result.Trades)),
		label.Render("Turnover:"), value.Render(fmt.Sprintf("%.2f", result.Turnover)),
		label.Render("Output:"), value.Render(output),
	)
	return box.Render(body)
}
