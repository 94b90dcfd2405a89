package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/scanwatch/dashboard/internal/history"
	"github.com/scanwatch/dashboard/internal/token"
	"github.com/scanwatch/dashboard/internal/trend"
)

// HistoryProvider supplies cached history and trend classification for
// visible rows. *history.Cache satisfies it.
type HistoryProvider interface {
	Get(address string) history.Entry
	Trends(address string) (liquidity, holders trend.Direction, ok bool)
}

// TokenListView is the main scrolling pane. It renders only the rows
// the Virtualizer reports as visible; off-window rows cost nothing and
// never trigger history fetches.
type TokenListView struct {
	textView  *tview.TextView
	vz        *Virtualizer
	histories HistoryProvider

	tokens       []token.Token
	selected     int
	lastViewport int
	total        int
}

// NewTokenListView creates the list pane. A negative overscan takes
// the default.
func NewTokenListView(histories HistoryProvider, overscan int) *TokenListView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	textView.SetTitle(" Tokens ").SetBorder(true)
	return &TokenListView{
		textView:  textView,
		vz:        NewVirtualizer(0, overscan),
		histories: histories,
	}
}

// Widget returns the tview primitive.
func (v *TokenListView) Widget() tview.Primitive {
	return v.textView
}

// SetBackgroundColor paints the pane background.
func (v *TokenListView) SetBackgroundColor(c tcell.Color) {
	v.textView.SetBackgroundColor(c)
}

// SetTokens replaces the rendered rows. filterChanged resets expansion
// state and scrolls to the top; a plain data refresh keeps both.
func (v *TokenListView) SetTokens(tokens []token.Token, total int, filterChanged bool) {
	v.tokens = tokens
	v.total = total
	if filterChanged {
		v.vz.ResetRows(len(tokens))
		v.selected = 0
	} else {
		v.vz.SetRowCount(len(tokens))
		if v.selected >= len(tokens) {
			v.selected = len(tokens) - 1
		}
		if v.selected < 0 {
			v.selected = 0
		}
	}
}

// Selected returns the currently selected token, if any.
func (v *TokenListView) Selected() (token.Token, bool) {
	if v.selected < 0 || v.selected >= len(v.tokens) {
		return token.Token{}, false
	}
	return v.tokens[v.selected], true
}

// MoveSelection moves the selection cursor and scrolls it into view.
func (v *TokenListView) MoveSelection(delta int) {
	if len(v.tokens) == 0 {
		return
	}
	v.selected = clamp(v.selected+delta, 0, len(v.tokens)-1)
	v.vz.ScrollToRow(v.selected, v.viewportHeight())
}

// PageBy scrolls by a fraction of the viewport without moving selection.
func (v *TokenListView) PageBy(pages float64) {
	h := v.viewportHeight()
	v.vz.ScrollBy(int(float64(h)*pages), h)
}

// ToggleSelected flips the selected row between collapsed and expanded.
func (v *TokenListView) ToggleSelected() {
	if v.selected >= 0 && v.selected < len(v.tokens) {
		v.vz.Toggle(v.selected)
		v.vz.ScrollToRow(v.selected, v.viewportHeight())
	}
}

// Refresh re-renders the visible window into the text view.
func (v *TokenListView) Refresh() {
	_, _, width, height := v.textView.GetInnerRect()
	if height <= 0 {
		height = 20
	}
	if width <= 0 {
		width = 80
	}
	if v.lastViewport != 0 && v.lastViewport != height {
		v.vz.Resize()
	}
	v.lastViewport = height

	v.textView.SetTitle(fmt.Sprintf(" Tokens (%d/%d) ", len(v.tokens), v.total))

	win := v.vz.Window(height)
	var b strings.Builder
	for row := win.First; row <= win.Last && row < len(v.tokens); row++ {
		lines := v.renderRow(row, width)
		v.vz.Measure(row, len(lines))
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	v.textView.Clear()
	fmt.Fprint(v.textView, b.String())

	// Align the text view's own scroll with the window offset.
	v.textView.ScrollTo(v.vz.Scroll()-win.TopOffset, 0)
}

func (v *TokenListView) viewportHeight() int {
	if v.lastViewport > 0 {
		return v.lastViewport
	}
	return 20
}

func (v *TokenListView) renderRow(row, width int) []string {
	t := v.tokens[row]
	expanded := v.vz.Expanded(row)

	cursor := "  "
	if row == v.selected {
		cursor = "[white]▶ [-]"
	}

	liqTrend, holdTrend, trendsOK := trend.Stagnant, trend.Stagnant, false
	if v.histories != nil {
		liqTrend, holdTrend, trendsOK = v.histories.Trends(t.Address)
	}

	header := fmt.Sprintf("%s%s %-10s [gray]%s[-]",
		cursor, riskTag(t.Risk), displayName(t), truncateAddress(t.Address))
	if trendsOK {
		header += fmt.Sprintf("  L:%s H:%s", trendArrow(liqTrend), trendArrow(holdTrend))
	}

	metrics := fmt.Sprintf("    age %s  holders %.0f  liq %s  tax %s/%s  scans %d",
		formatAge(t.Age()), t.Holders(), formatAmount(t.Liquidity()),
		formatTax(t.Honeypot.BuyTax), formatTax(t.Honeypot.SellTax), t.TotalScans)

	lines := []string{header, metrics}

	if !expanded {
		lines = append(lines, "")
		return lines
	}

	entry := history.Entry{}
	if v.histories != nil {
		entry = v.histories.Get(t.Address)
	}

	lines = append(lines,
		fmt.Sprintf("    pair  %s  [gray]%s / %s[-]",
			truncateAddress(t.PairAddress), t.Honeypot.PairToken0Sym, t.Honeypot.PairToken1Sym),
		fmt.Sprintf("    owner %s  creator %s",
			truncateAddress(t.Honeypot.OwnerAddress), truncateAddress(t.Honeypot.CreatorAddress)),
		fmt.Sprintf("    supply %s  decimals %s",
			t.TotalSupply.String(), formatOptional(t.Decimals)),
		"    "+securityFlags(t),
	)

	if entry.Err != nil {
		lines = append(lines, fmt.Sprintf("    [red]history: %v[-]", entry.Err))
	} else if len(entry.Points) > 0 {
		liq := make([]float64, len(entry.Points))
		for i, p := range entry.Points {
			liq[i] = p.TotalLiquidity
		}
		lines = append(lines, fmt.Sprintf("    liq  [aqua]%s[-]", Sparkline(liq, width-12)))
	} else if entry.Pending {
		lines = append(lines, "    [yellow]history: fetching...[-]")
	} else {
		lines = append(lines, "    history: none")
	}

	if tail := t.LadderTail(0); len(tail) > 0 {
		lines = append(lines, fmt.Sprintf("    scan [green]%s[-]", Sparkline(tail, width-12)))
	} else {
		lines = append(lines, "    scan (no ladder)")
	}

	status := fmt.Sprintf("    status %s  failures %d", t.Status, t.HoneypotFailures)
	if t.LastError != "" {
		status += fmt.Sprintf("  [red]%s[-]", tview.Escape(t.LastError))
	}
	lines = append(lines, status)

	if t.Honeypot.IsHoneypot && t.Honeypot.HoneypotReason != "" {
		lines = append(lines, fmt.Sprintf("    [red]honeypot: %s[-]", tview.Escape(t.Honeypot.HoneypotReason)))
	} else {
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("    scanned %s", t.ScanTimestamp), "")
	return lines
}

// securityFlags summarizes the warning-grade contract flags on one line.
func securityFlags(t token.Token) string {
	var flags []string
	sec := t.Security
	if sec.IsProxy || t.Honeypot.IsProxy {
		flags = append(flags, "proxy")
	}
	if sec.IsMintable || sec.CanBeMinted || t.Honeypot.IsMintable {
		flags = append(flags, "mintable")
	}
	if sec.SlippageModifiable {
		flags = append(flags, "slippage-mod")
	}
	if sec.CannotSellAll {
		flags = append(flags, "cannot-sell-all")
	}
	if sec.TradingCooldown {
		flags = append(flags, "cooldown")
	}
	if sec.TransferPausable {
		flags = append(flags, "pausable")
	}
	if sec.OpenSourceKnown && !sec.IsOpenSource {
		flags = append(flags, "[red]closed-source[-]")
	}
	if len(flags) == 0 {
		return "[gray]no contract flags[-]"
	}
	return "flags: " + strings.Join(flags, " ")
}

// riskTag renders the risk level as a fixed-width colored badge.
func riskTag(r token.RiskLevel) string {
	switch r {
	case token.RiskDanger:
		return "[red]DANGER [-]"
	case token.RiskWarning:
		return "[yellow]WARN   [-]"
	default:
		return "[green]SAFE   [-]"
	}
}

func trendArrow(d trend.Direction) string {
	switch d {
	case trend.Up:
		return "[green]▲[-]"
	case trend.Down:
		return "[red]▼[-]"
	default:
		return "[gray]±[-]"
	}
}

func formatAge(hours float64) string {
	switch {
	case hours <= 0:
		return "N/A"
	case hours < 1:
		return fmt.Sprintf("%.0fm", hours*60)
	case hours < 48:
		return fmt.Sprintf("%.1fh", hours)
	default:
		return fmt.Sprintf("%.0fd", hours/24)
	}
}

func formatTax(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", *v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", *v)
}
