package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/scanwatch/dashboard/internal/history"
	"github.com/scanwatch/dashboard/internal/token"
	"github.com/scanwatch/dashboard/internal/trend"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a series as a row of block glyphs, resampled to
// width cells. Non-finite values render as the lowest block.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	sampled := resample(values, width)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range sampled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return strings.Repeat(string(sparkRunes[0]), len(sampled))
	}

	var b strings.Builder
	span := hi - lo
	for _, v := range sampled {
		idx := 0
		if span > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			idx = int((v - lo) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[clamp(idx, 0, len(sparkRunes)-1)])
	}
	return b.String()
}

// resample reduces (or keeps) a series to at most width points by
// bucket-averaging.
func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := range out {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// ChartView is the detail pane for the selected token: its liquidity
// and holder history as sparklines, the on-row liquidity ladder, and
// any history-fetch error inline.
type ChartView struct {
	textView *tview.TextView
}

// NewChartView creates the chart pane.
func NewChartView() *ChartView {
	textView := tview.NewTextView().
		SetDynamicColors(true)
	textView.SetTitle(" History ").SetBorder(true)
	return &ChartView{textView: textView}
}

// Widget returns the tview primitive.
func (v *ChartView) Widget() tview.Primitive {
	return v.textView
}

// SetBackgroundColor paints the pane background.
func (v *ChartView) SetBackgroundColor(c tcell.Color) {
	v.textView.SetBackgroundColor(c)
}

// Clear empties the pane.
func (v *ChartView) Clear() {
	v.textView.Clear()
	v.textView.SetTitle(" History ")
}

// Update redraws the pane for one token and its cached history entry.
func (v *ChartView) Update(t token.Token, entry history.Entry) {
	v.textView.Clear()
	v.textView.SetTitle(fmt.Sprintf(" History: %s ", displayName(t)))

	_, _, width, _ := v.textView.GetInnerRect()
	if width <= 0 {
		width = 40
	}

	var b strings.Builder

	if entry.Err != nil {
		fmt.Fprintf(&b, "[red]history fetch failed: %v[-]\n\n", entry.Err)
	} else if entry.Pending && len(entry.Points) == 0 {
		b.WriteString("[yellow]fetching history...[-]\n\n")
	}

	if len(entry.Points) > 0 {
		liq := make([]float64, len(entry.Points))
		holders := make([]float64, len(entry.Points))
		for i, p := range entry.Points {
			liq[i] = p.TotalLiquidity
			holders[i] = p.HolderCount
		}

		fmt.Fprintf(&b, "[::b]Liquidity[-:-:-]  %s\n", trendTag(trend.Classify(liq)))
		fmt.Fprintf(&b, "[aqua]%s[-]\n", Sparkline(liq, width-2))
		fmt.Fprintf(&b, "  first %s  last %s\n\n", formatAmount(liq[0]), formatAmount(liq[len(liq)-1]))

		fmt.Fprintf(&b, "[::b]Holders[-:-:-]    %s\n", trendTag(trend.Classify(holders)))
		fmt.Fprintf(&b, "[aqua]%s[-]\n", Sparkline(holders, width-2))
		fmt.Fprintf(&b, "  first %.0f  last %.0f\n\n", holders[0], holders[len(holders)-1])
	} else if entry.Err == nil && !entry.Pending {
		b.WriteString("no history yet\n\n")
	}

	if tail := t.LadderTail(0); len(tail) > 0 {
		b.WriteString("[::b]Scan ladder[-:-:-]\n")
		fmt.Fprintf(&b, "[green]%s[-]\n", Sparkline(tail, width-2))
	}

	fmt.Fprint(v.textView, b.String())
}

// trendTag formats a direction as a colored badge.
func trendTag(d trend.Direction) string {
	switch d {
	case trend.Up:
		return "[green]▲ up[-]"
	case trend.Down:
		return "[red]▼ down[-]"
	default:
		return "[gray]± stagnant[-]"
	}
}

// formatAmount renders a dollar-ish quantity compactly.
func formatAmount(v float64) string {
	switch {
	case math.Abs(v) >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case math.Abs(v) >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// displayName prefers symbol, then name, then a truncated address.
func displayName(t token.Token) string {
	if t.Symbol != "" {
		return t.Symbol
	}
	if t.Name != "" {
		return t.Name
	}
	return truncateAddress(t.Address)
}

// truncateAddress shortens a hex address for display.
func truncateAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
