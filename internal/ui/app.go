// Package ui provides terminal user interface components.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/scanwatch/dashboard/internal/filter"
	"github.com/scanwatch/dashboard/internal/history"
	"github.com/scanwatch/dashboard/internal/stats"
	"github.com/scanwatch/dashboard/internal/token"
)

// sortCycle is the order the sort key steps through on each press.
var sortCycle = []string{filter.SortAge, filter.SortHolders, filter.SortLiquidity, filter.SortSafety}

// backgroundCycle is the order the background preference steps through.
var backgroundCycle = []string{"black", "navy", "darkslategray", "maroon"}

// backgroundColor maps a stored preference name to a color. Unknown
// names fall back to black so a stale preference never breaks startup.
func backgroundColor(name string) tcell.Color {
	if c, ok := tcell.ColorNames[strings.ToLower(name)]; ok {
		return c
	}
	return tcell.ColorBlack
}

// nextBackground steps to the next palette entry; an unknown current
// name restarts the cycle.
func nextBackground(current string) string {
	for i, name := range backgroundCycle {
		if name == current {
			return backgroundCycle[(i+1)%len(backgroundCycle)]
		}
	}
	return backgroundCycle[0]
}

// Prefs carries the restored user preferences and their write-through
// persistence callbacks.
type Prefs struct {
	Filter            filter.State
	PersistFilter     func(filter.State)
	Background        string
	PersistBackground func(string)
}

// App is the main TUI application.
type App struct {
	app    *tview.Application
	layout *tview.Flex
	middle *tview.Flex

	// Views
	tokenList *TokenListView
	chart     *ChartView
	status    *StatusView
	filterBar *FilterBarView

	// Data
	collection *token.Collection
	histories  *history.Cache
	tracker    *stats.Tracker

	// State. Mutated only on the tview event goroutine.
	filterState       filter.State
	persistFilter     func(filter.State)
	background        string
	persistBackground func(string)
	filterChanged     bool
	searching         bool

	refreshCh chan struct{}
	refresh   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(collection *token.Collection, histories *history.Cache, tracker *stats.Tracker,
	prefs Prefs, overscan int, refresh time.Duration) *App {
	ctx, cancel := context.WithCancel(context.Background())

	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	if prefs.PersistFilter == nil {
		prefs.PersistFilter = func(filter.State) {}
	}
	if prefs.PersistBackground == nil {
		prefs.PersistBackground = func(string) {}
	}
	if prefs.Background == "" {
		prefs.Background = backgroundCycle[0]
	}

	a := &App{
		app:               tview.NewApplication(),
		collection:        collection,
		histories:         histories,
		tracker:           tracker,
		filterState:       prefs.Filter,
		persistFilter:     prefs.PersistFilter,
		background:        prefs.Background,
		persistBackground: prefs.PersistBackground,
		filterChanged:     true,
		refreshCh:         make(chan struct{}, 1),
		refresh:           refresh,
		ctx:               ctx,
		cancel:            cancel,
	}

	a.tokenList = NewTokenListView(histories, overscan)
	a.chart = NewChartView()
	a.status = NewStatusView()
	a.filterBar = NewFilterBarView()

	a.setupLayout()
	a.setupKeyboard()
	a.applyBackground()

	return a
}

// applyBackground repaints every pane with the preferred color.
func (a *App) applyBackground() {
	c := backgroundColor(a.background)
	a.layout.SetBackgroundColor(c)
	a.middle.SetBackgroundColor(c)
	a.tokenList.SetBackgroundColor(c)
	a.chart.SetBackgroundColor(c)
	a.status.SetBackgroundColor(c)
	a.filterBar.SetBackgroundColor(c)
}

// cycleBackground steps the background preference and persists it.
func (a *App) cycleBackground() {
	a.background = nextBackground(a.background)
	a.persistBackground(a.background)
	a.applyBackground()
}

// setupLayout builds the pane arrangement: filter bar, token list with
// the detail chart beside it, session status at the bottom.
func (a *App) setupLayout() {
	a.middle = tview.NewFlex().
		AddItem(a.tokenList.Widget(), 0, 2, true).
		AddItem(a.chart.Widget(), 0, 1, false)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.filterBar.Widget(), 4, 0, false).
		AddItem(a.middle, 0, 1, false).
		AddItem(a.status.Widget(), 3, 0, false)

	a.app.SetRoot(a.layout, true)
}

// setupKeyboard configures keyboard shortcuts. While the search prompt
// is active, printable runes feed the search term instead.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.searching {
			return a.handleSearchKey(event)
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyUp:
			a.tokenList.MoveSelection(-1)
			a.redraw()
			return nil
		case tcell.KeyDown:
			a.tokenList.MoveSelection(1)
			a.redraw()
			return nil
		case tcell.KeyPgUp:
			a.tokenList.PageBy(-0.9)
			a.redraw()
			return nil
		case tcell.KeyPgDn:
			a.tokenList.PageBy(0.9)
			a.redraw()
			return nil
		case tcell.KeyEnter:
			a.tokenList.ToggleSelected()
			a.redraw()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				a.Stop()
				return nil
			case 'j':
				a.tokenList.MoveSelection(1)
				a.redraw()
				return nil
			case 'k':
				a.tokenList.MoveSelection(-1)
				a.redraw()
				return nil
			case 's':
				a.mutateFilter(func(st *filter.State) { st.SortBy = nextSortField(st.SortBy) })
				return nil
			case 'r':
				a.mutateFilter(func(st *filter.State) { st.SortBy = reverseSort(st.SortBy) })
				return nil
			case '/':
				a.searching = true
				a.redraw()
				return nil
			case 'h':
				a.mutateFilter(func(st *filter.State) { st.HideHoneypots = !st.HideHoneypots })
				return nil
			case 'd':
				a.mutateFilter(func(st *filter.State) { st.HideDanger = !st.HideDanger })
				return nil
			case 'w':
				a.mutateFilter(func(st *filter.State) { st.HideWarning = !st.HideWarning })
				return nil
			case 'o':
				a.mutateFilter(func(st *filter.State) { st.OnlySafe = !st.OnlySafe })
				return nil
			case 'H':
				a.mutateFilter(func(st *filter.State) { st.OnlyHoneypots = !st.OnlyHoneypots })
				return nil
			case 'g':
				a.mutateFilter(func(st *filter.State) { st.HideStagnantLiquidity = !st.HideStagnantLiquidity })
				return nil
			case 'G':
				a.mutateFilter(func(st *filter.State) { st.HideStagnantHolders = !st.HideStagnantHolders })
				return nil
			case 'b':
				a.cycleBackground()
				a.redraw()
				return nil
			}
		}
		return event
	})
}

// handleSearchKey edits the search term while the prompt is active.
func (a *App) handleSearchKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter:
		a.searching = false
		a.redraw()
	case tcell.KeyEscape:
		a.searching = false
		a.mutateFilter(func(st *filter.State) { st.Search = "" })
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.mutateFilter(func(st *filter.State) {
			if len(st.Search) > 0 {
				st.Search = st.Search[:len(st.Search)-1]
			}
		})
	case tcell.KeyRune:
		r := event.Rune()
		a.mutateFilter(func(st *filter.State) { st.Search = st.Search + string(r) })
	case tcell.KeyCtrlC:
		a.Stop()
	}
	return nil
}

// mutateFilter applies one filter edit, persists the new state, and
// recomputes the visible set from scratch.
func (a *App) mutateFilter(edit func(*filter.State)) {
	edit(&a.filterState)
	a.persistFilter(a.filterState)
	a.filterChanged = true
	a.redraw()
}

// nextSortField steps to the next base sort field, keeping the current
// direction flip.
func nextSortField(current string) string {
	base, flipped := splitSort(current)
	for i, f := range sortCycle {
		if f == base {
			base = sortCycle[(i+1)%len(sortCycle)]
			if flipped {
				return reverseSort(base)
			}
			return base
		}
	}
	return sortCycle[0]
}

// reverseSort toggles between a sort field and its flipped variant.
func reverseSort(current string) string {
	switch current {
	case filter.SortAge:
		return filter.SortAgeAsc
	case filter.SortAgeAsc:
		return filter.SortAge
	case filter.SortHolders:
		return filter.SortHoldersAsc
	case filter.SortHoldersAsc:
		return filter.SortHolders
	case filter.SortLiquidity:
		return filter.SortLiquidityAsc
	case filter.SortLiquidityAsc:
		return filter.SortLiquidity
	case filter.SortSafety:
		return filter.SortSafetyDesc
	case filter.SortSafetyDesc:
		return filter.SortSafety
	}
	return current
}

func splitSort(current string) (base string, flipped bool) {
	switch current {
	case filter.SortAgeAsc:
		return filter.SortAge, true
	case filter.SortHoldersAsc:
		return filter.SortHolders, true
	case filter.SortLiquidityAsc:
		return filter.SortLiquidity, true
	case filter.SortSafetyDesc:
		return filter.SortSafety, true
	}
	return current, false
}

// RequestRefresh schedules a redraw from outside the event loop. Safe
// to call from any goroutine; bursts coalesce into one redraw.
func (a *App) RequestRefresh() {
	select {
	case a.refreshCh <- struct{}{}:
	default:
	}
}

// Run starts the TUI application (blocking).
func (a *App) Run() error {
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// updateLoop turns refresh requests and the periodic tick into redraws
// on the event goroutine.
func (a *App) updateLoop() {
	ticker := time.NewTicker(a.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.refreshCh:
		case <-ticker.C:
		}
		a.app.QueueUpdateDraw(a.redraw)
	}
}

// redraw recomputes the display pipeline and repaints every pane. Must
// run on the tview event goroutine.
func (a *App) redraw() {
	all := a.collection.Snapshot()
	visible := filter.Apply(all, a.filterState, a.histories)

	a.tokenList.SetTokens(visible, len(all), a.filterChanged)
	a.filterChanged = false
	a.tokenList.Refresh()

	if sel, ok := a.tokenList.Selected(); ok {
		a.chart.Update(sel, a.histories.Get(sel.Address))
	} else {
		a.chart.Clear()
	}

	a.status.Update(a.tracker.Snapshot())
	a.filterBar.Update(a.filterState, a.searching)
}
