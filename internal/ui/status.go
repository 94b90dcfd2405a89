package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/scanwatch/dashboard/internal/filter"
	"github.com/scanwatch/dashboard/internal/stats"
)

// StatusView is the session-health bar: connection state, message
// throughput and drop counts.
type StatusView struct {
	textView *tview.TextView
}

// NewStatusView creates the status bar.
func NewStatusView() *StatusView {
	textView := tview.NewTextView().
		SetDynamicColors(true)
	textView.SetTitle(" Session ").SetBorder(true)
	return &StatusView{textView: textView}
}

// Widget returns the tview primitive.
func (v *StatusView) Widget() tview.Primitive {
	return v.textView
}

// SetBackgroundColor paints the pane background.
func (v *StatusView) SetBackgroundColor(c tcell.Color) {
	v.textView.SetBackgroundColor(c)
}

// Update redraws the bar from a stats snapshot.
func (v *StatusView) Update(s stats.Snapshot) {
	v.textView.Clear()

	var state string
	switch {
	case s.ConnectionState == "connected" && s.Confirmed:
		state = "[green]● connected[-]"
	case s.ConnectionState == "connected":
		state = "[yellow]● connected (unconfirmed)[-]"
	case s.ConnectionState == "connecting":
		state = "[yellow]◌ connecting[-]"
	default:
		state = "[red]○ disconnected[-]"
	}

	fmt.Fprintf(v.textView,
		"%s  msgs %d (%.1f/s)  tokens %d  dropped %d  heartbeats %d  up %s",
		state, s.MessagesTotal, s.MessageRate, s.TokensReceived,
		s.DroppedMessages, s.HeartbeatsSent, s.Uptime.Round(time.Second))
}

// FilterBarView shows the active filter configuration and key hints.
type FilterBarView struct {
	textView *tview.TextView
}

// NewFilterBarView creates the filter bar.
func NewFilterBarView() *FilterBarView {
	textView := tview.NewTextView().
		SetDynamicColors(true)
	textView.SetTitle(" Filters ").SetBorder(true)
	return &FilterBarView{textView: textView}
}

// Widget returns the tview primitive.
func (v *FilterBarView) Widget() tview.Primitive {
	return v.textView
}

// SetBackgroundColor paints the pane background.
func (v *FilterBarView) SetBackgroundColor(c tcell.Color) {
	v.textView.SetBackgroundColor(c)
}

// Update redraws the active-filter summary.
func (v *FilterBarView) Update(st filter.State, searching bool) {
	v.textView.Clear()

	var active []string
	if st.HideHoneypots {
		active = append(active, "hide-honeypots")
	}
	if st.OnlyHoneypots {
		active = append(active, "only-honeypots")
	}
	if st.HideDanger {
		active = append(active, "hide-danger")
	}
	if st.HideWarning {
		active = append(active, "hide-warning")
	}
	if st.OnlySafe {
		active = append(active, "only-safe")
	}
	if st.HideStagnantLiquidity {
		active = append(active, "hide-stagnant-liq")
	}
	if st.HideStagnantHolders {
		active = append(active, "hide-stagnant-holders")
	}
	if st.MinHolders > 0 {
		active = append(active, fmt.Sprintf("holders≥%.0f", st.MinHolders))
	}
	if st.MinLiquidity > 0 {
		active = append(active, fmt.Sprintf("liq≥%.0f", st.MinLiquidity))
	}

	summary := "[gray]none[-]"
	if len(active) > 0 {
		summary = "[aqua]" + strings.Join(active, " ") + "[-]"
	}

	search := st.Search
	if searching {
		search = "[::u]" + tview.Escape(search) + "_[-:-:-]"
	} else if search == "" {
		search = "[gray]-[-]"
	} else {
		search = tview.Escape(search)
	}

	fmt.Fprintf(v.textView, "sort [yellow]%s[-]  search %s  filters %s  cap %d\n",
		st.SortBy, search, summary, st.MaxRecords)
	fmt.Fprint(v.textView,
		"[gray]↑/↓ select  enter expand  s sort  r reverse  / search  h honeypots  d danger  w warning  o safe  g/G stagnant  b background  q quit[-]")
}
