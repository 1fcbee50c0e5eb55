package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"StockSentinel/internal/model"
	"StockSentinel/internal/provider"
)

// rankSize is the length of the lowest/highest RSI lists in a digest.
const rankSize = 10

// FormatDigest renders a subscriber digest as Telegram HTML.
func FormatDigest(d model.Digest) string {
	var b strings.Builder

	name := d.Subscriber.Name
	if name == "" {
		name = d.Subscriber.ID
	}
	b.WriteString(fmt.Sprintf("📊 <b>StockSentinel</b> | %s\n", html.EscapeString(name)))
	b.WriteString(fmt.Sprintf("%s · %d symbols analyzed\n\n", d.GeneratedAt.Format("2006-01-02 15:04"), len(d.Analyses)))

	if len(d.SellSignals) > 0 {
		b.WriteString("🚨 <b>Sell signals (held)</b>\n")
		for _, item := range d.SellSignals {
			a := item.Analysis
			b.WriteString(fmt.Sprintf("• <b>%s</b> %.2f · RSI %.1f\n", a.Symbol, a.Price, a.RSI))
			if item.Position != nil {
				amount, pct := item.Position.PnL(a.Price)
				b.WriteString(fmt.Sprintf("  %.0f @ %.2f · P/L %+.2f (%+.2f%%)\n", item.Position.Quantity, item.Position.AvgPrice, amount, pct))
			}
			b.WriteString(fmt.Sprintf("  %s\n", lastLadderCondition(a, "SELL")))
		}
		b.WriteString("\n")
	}

	if len(d.BuySignals) > 0 {
		b.WriteString("🎯 <b>Buy signals</b>\n")
		for _, item := range d.BuySignals {
			a := item.Analysis
			b.WriteString(fmt.Sprintf("• <b>%s</b> %.2f · RSI %.1f · stop %.2f · target %.2f\n",
				a.Symbol, a.Price, a.RSI, a.StopLoss, a.TakeProfit))
			b.WriteString(fmt.Sprintf("  %s\n", lastLadderCondition(a, "BUY")))
		}
		b.WriteString("\n")
	}

	if len(d.SellSignals) == 0 && len(d.BuySignals) == 0 {
		b.WriteString("No buy or sell signals this cycle.\n\n")
	}

	if len(d.Analyses) > 0 {
		low, high := rankByRSI(d.Analyses, rankSize)
		b.WriteString("📉 <b>Lowest RSI</b>\n")
		writeRanking(&b, low)
		b.WriteString("\n📈 <b>Highest RSI</b>\n")
		writeRanking(&b, high)
	}

	if len(d.Errors) > 0 {
		b.WriteString("\n⚠️ <b>Errors</b>\n")
		for _, e := range d.Errors {
			b.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(e)))
		}
	}
	return b.String()
}

// FormatAnalysis renders a single analysis for on-demand replies.
func FormatAnalysis(a model.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %.2f\n", a.Symbol, a.Price))
	b.WriteString(fmt.Sprintf("Holding: <b>%s</b> · New position: <b>%s</b>\n", a.CurrentSignal, a.NewSignal))
	b.WriteString(fmt.Sprintf("RSI %.2f · MACD %.4f · Trend %s · Return %+.2f%%\n", a.RSI, a.MACDHistogram, a.Trend, a.PeriodReturnPct))
	b.WriteString(fmt.Sprintf("Stop %.2f · Target %.2f\n", a.StopLoss, a.TakeProfit))
	source := string(a.DataSource)
	if a.Provider != "" {
		source += "/" + a.Provider
	}
	b.WriteString(fmt.Sprintf("Source: %s\n\n", source))
	for _, c := range a.Conditions {
		b.WriteString(html.EscapeString(c))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCacheStats renders the cache snapshot.
func FormatCacheStats(s model.CacheStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗄 <b>Cache</b> | %d entries\n", s.Size))
	if !s.LastCycleAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last cycle: %s\n", s.LastCycleAt.Format("2006-01-02 15:04")))
	}
	for _, e := range s.Entries {
		b.WriteString(fmt.Sprintf("• %s RSI %.1f %s/%s (%d subs)\n", e.Symbol, e.RSI, e.CurrentSignal, e.NewSignal, e.SubscriberCount))
	}
	return b.String()
}

// FormatProviderStats renders fallback usage counters.
func FormatProviderStats(stats []provider.AdapterStats) string {
	var b strings.Builder
	b.WriteString("🔌 <b>Providers</b>\n")
	for _, s := range stats {
		b.WriteString(fmt.Sprintf("%d. %s · %d req · %d ok · %d fail\n", s.Priority, s.Name, s.Requests, s.Successes, s.Failures))
		if s.LastError != "" {
			b.WriteString(fmt.Sprintf("   last error: %s\n", html.EscapeString(s.LastError)))
		}
	}
	return b.String()
}

// FormatProbeResults renders a provider probe as a provider-by-symbol grid.
func FormatProbeResults(results []provider.ProbeResult) string {
	var b strings.Builder
	b.WriteString("🩺 <b>Provider probe</b>\n")
	last := ""
	for _, r := range results {
		if r.Provider != last {
			b.WriteString(fmt.Sprintf("%d. %s\n", r.Priority, r.Provider))
			last = r.Provider
		}
		if r.Success {
			b.WriteString(fmt.Sprintf("   ✅ %s %d bars\n", r.Symbol, r.Bars))
			continue
		}
		b.WriteString(fmt.Sprintf("   ❌ %s %s\n", r.Symbol, html.EscapeString(r.Error)))
	}
	return b.String()
}

func lastLadderCondition(a model.AnalysisResult, prefix string) string {
	for i := len(a.Conditions) - 1; i >= 0; i-- {
		if strings.Contains(a.Conditions[i], prefix+":") {
			return html.EscapeString(a.Conditions[i])
		}
	}
	return ""
}

// rankByRSI returns up to n analyses with the lowest and the highest RSI.
func rankByRSI(analyses []model.AnalysisResult, n int) (low, high []model.AnalysisResult) {
	sorted := make([]model.AnalysisResult, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RSI < sorted[j].RSI })
	if n > len(sorted) {
		n = len(sorted)
	}
	low = sorted[:n]
	high = make([]model.AnalysisResult, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		high = append(high, sorted[i])
	}
	return low, high
}

func writeRanking(b *strings.Builder, list []model.AnalysisResult) {
	for i, a := range list {
		b.WriteString(fmt.Sprintf("%d. %s RSI %.1f · %s\n", i+1, a.Symbol, a.RSI, a.NewSignal))
	}
}
