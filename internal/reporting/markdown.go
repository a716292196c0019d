package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Strategy Journal Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategies: %d | Day boundary: %s\n\n", len(r.Strategies), locationName(r)))

	if len(r.Strategies) == 0 {
		sb.WriteString("No strategies available.\n")
		return sb.String()
	}

	// Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Strategy | Positions | Total P&L | Win Rate | Profit Factor |\n")
	sb.WriteString("|----------|-----------|-----------|----------|---------------|\n")
	for _, s := range r.Strategies {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f%% | %.2f |\n",
			escape(s.Name), s.Counts.Total(), s.Metrics.TotalPnL, s.Metrics.WinRate, s.Metrics.ProfitFactor))
	}
	sb.WriteString("\n")

	for _, s := range r.Strategies {
		renderStrategy(&sb, &s)
	}

	return sb.String()
}

func renderStrategy(sb *strings.Builder, s *StrategySection) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", escape(s.Name)))
	sb.WriteString(fmt.Sprintf("ID: `%s`", s.StrategyID))
	if s.UserID != "" {
		sb.WriteString(fmt.Sprintf(" | Owner: `%s`", s.UserID))
	}
	sb.WriteString("\n\n")
	if tags := joinTags(s.MarketTypes, s.Timeframes, s.Categories); tags != "" {
		sb.WriteString(fmt.Sprintf("Tags: %s\n\n", tags))
	}

	// Metrics
	sb.WriteString("### Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total P&L | %.2f |\n", s.Metrics.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", s.Metrics.WinRate))
	sb.WriteString(fmt.Sprintf("| Avg Win | %.2f |\n", s.Metrics.AvgWin))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %.2f |\n", s.Metrics.AvgLoss))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.2f |\n", s.Metrics.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Avg P&L / Day | %.2f |\n", s.Metrics.AvgPnLPerDay))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Open: %d | Won: %d | Lost: %d | Push: %d | Closed: %d\n\n",
		s.Counts.Open, s.Counts.Won, s.Counts.Lost, s.Counts.Push, s.Counts.Closed))

	// Bets
	sb.WriteString("### Bets\n\n")
	if len(s.Bets) > 0 {
		sb.WriteString("| Date | Market | Symbol | Legs | Risk | Return | Return % | Status |\n")
		sb.WriteString("|------|--------|--------|------|------|--------|----------|--------|\n")
		for _, b := range s.Bets {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.2f | %.2f | %.2f | %s |\n",
				orDash(b.Date), b.Market, escape(orDash(b.Symbol)), b.Legs, b.Risk, b.Return, b.ReturnPercentage, b.Status))
		}
	} else {
		sb.WriteString("No bets recorded.\n")
	}
	sb.WriteString("\n")

	// Groups
	if len(s.Groups) > 0 {
		sb.WriteString("### Bet Groups\n\n")
		sb.WriteString("| Group | Symbol | Bets | Risk | Return | Return % | Status | Closed |\n")
		sb.WriteString("|-------|--------|------|------|--------|----------|--------|--------|\n")
		for _, g := range s.Groups {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.2f | %.2f | %.2f | %s | %s |\n",
				g.GroupID, escape(orDash(g.Symbol)), g.Children, g.Risk, g.Return, g.ReturnPercentage, g.Status, orDash(g.DateClosed)))
		}
		sb.WriteString("\n")
	}

	// Cumulative P&L
	sb.WriteString("### Cumulative P&L\n\n")
	if len(s.PnL) > 0 {
		sb.WriteString("| Date | Cumulative P&L |\n")
		sb.WriteString("|------|----------------|\n")
		for _, p := range s.PnL {
			sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", p.Date, p.Value))
		}
	} else {
		sb.WriteString("No settled positions.\n")
	}
	sb.WriteString("\n")
}

func locationName(r *Report) string {
	if r.Location == nil {
		return "UTC"
	}
	return r.Location.String()
}

func joinTags(groups ...[]string) string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	return strings.Join(all, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escape keeps free-form text from breaking table rows.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
