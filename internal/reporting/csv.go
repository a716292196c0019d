package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// RenderMetricsCSV renders one metrics row per strategy.
func RenderMetricsCSV(r *Report) string {
	rows := [][]string{{
		"strategy_id", "name", "positions", "open", "won", "lost", "push", "closed",
		"total_pnl", "win_rate", "avg_win", "avg_loss", "profit_factor", "avg_pnl_per_day",
	}}
	for _, s := range r.Strategies {
		m := s.Metrics
		rows = append(rows, []string{
			s.StrategyID, s.Name,
			strconv.Itoa(s.Counts.Total()),
			strconv.Itoa(s.Counts.Open), strconv.Itoa(s.Counts.Won), strconv.Itoa(s.Counts.Lost),
			strconv.Itoa(s.Counts.Push), strconv.Itoa(s.Counts.Closed),
			num(m.TotalPnL), num(m.WinRate), num(m.AvgWin), num(m.AvgLoss),
			num(m.ProfitFactor), num(m.AvgPnLPerDay),
		})
	}
	return writeCSV(rows)
}

// RenderBetsCSV renders every bet of every strategy.
func RenderBetsCSV(r *Report) string {
	rows := [][]string{{
		"strategy_id", "bet_id", "date", "market", "symbol", "legs",
		"risk", "return", "return_percentage", "status",
	}}
	for _, s := range r.Strategies {
		for _, b := range s.Bets {
			rows = append(rows, []string{
				s.StrategyID, b.BetID, b.Date, string(b.Market), b.Symbol, strconv.Itoa(b.Legs),
				num(b.Risk), num(b.Return), num(b.ReturnPercentage), string(b.Status),
			})
		}
	}
	return writeCSV(rows)
}

// RenderPnLCSV renders the cumulative daily P&L of every strategy.
func RenderPnLCSV(r *Report) string {
	rows := [][]string{{"strategy_id", "date", "cumulative_pnl"}}
	for _, s := range r.Strategies {
		for _, p := range s.PnL {
			rows = append(rows, []string{s.StrategyID, p.Date, num(p.Value)})
		}
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows) // writes to a bytes.Buffer cannot fail
	return buf.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
