package ui

// DefaultOverscan is how many extra rows are materialized beyond each
// edge of the visible window to mask fast-scroll flicker.
const DefaultOverscan = 5

// Row line-heights for the two display modes.
const (
	CollapsedRowHeight = 3
	ExpandedRowHeight  = 12
)

// Virtualizer decides which rows of the ordered token sequence get
// materialized for a scrollable viewport. Row heights are estimated
// from the row's display mode until a real post-layout measurement is
// recorded; measurements are cached per row index.
type Virtualizer struct {
	collapsedHeight int
	expandedHeight  int
	overscan        int

	rows     int
	expanded map[int]bool
	measured map[int]int
	scroll   int
}

// Window is the materialization decision for one frame: rows
// [First,Last] inclusive, the line offset of First from the top of the
// virtual canvas, and the canvas's total height.
type Window struct {
	First       int
	Last        int
	TopOffset   int
	TotalHeight int
}

// NewVirtualizer creates a Virtualizer over rows rows with the default
// mode heights. A negative overscan takes the default.
func NewVirtualizer(rows, overscan int) *Virtualizer {
	if overscan < 0 {
		overscan = DefaultOverscan
	}
	return &Virtualizer{
		collapsedHeight: CollapsedRowHeight,
		expandedHeight:  ExpandedRowHeight,
		overscan:        overscan,
		rows:            rows,
		expanded:        make(map[int]bool),
		measured:        make(map[int]int),
	}
}

// ResetRows is the filter-change path: the row-to-index mapping is no
// longer stable, so every cached measurement and expand state is
// dropped and the scroll position returns to the top.
func (v *Virtualizer) ResetRows(n int) {
	v.rows = n
	v.expanded = make(map[int]bool)
	v.measured = make(map[int]int)
	v.scroll = 0
}

// SetRowCount adjusts the row count without touching caches, for
// collection growth under an unchanged filter.
func (v *Virtualizer) SetRowCount(n int) {
	v.rows = n
	if v.rows < 0 {
		v.rows = 0
	}
}

// RowCount returns the current number of rows.
func (v *Virtualizer) RowCount() int { return v.rows }

// Expanded reports a row's display mode.
func (v *Virtualizer) Expanded(i int) bool { return v.expanded[i] }

// Toggle flips one row between collapsed and expanded. Only that
// row's cached measurement is invalidated; every other measurement
// and the scroll offset stay put.
func (v *Virtualizer) Toggle(i int) {
	if i < 0 || i >= v.rows {
		return
	}
	if v.expanded[i] {
		delete(v.expanded, i)
	} else {
		v.expanded[i] = true
	}
	delete(v.measured, i)
}

// Measure records a row's actual rendered height.
func (v *Virtualizer) Measure(i, height int) {
	if i < 0 || i >= v.rows || height <= 0 {
		return
	}
	v.measured[i] = height
}

// Height returns a row's effective height: the cached measurement if
// one exists, else the mode estimate.
func (v *Virtualizer) Height(i int) int {
	if h, ok := v.measured[i]; ok {
		return h
	}
	if v.expanded[i] {
		return v.expandedHeight
	}
	return v.collapsedHeight
}

// TotalHeight is the full virtual canvas height.
func (v *Virtualizer) TotalHeight() int {
	total := 0
	for i := 0; i < v.rows; i++ {
		total += v.Height(i)
	}
	return total
}

// Resize is the window-resize path: layout may have reflowed every
// row, so all measurements are dropped, but the scroll offset is
// preserved (clamped on the next Window call).
func (v *Virtualizer) Resize() {
	v.measured = make(map[int]int)
}

// Scroll returns the current offset in lines.
func (v *Virtualizer) Scroll() int { return v.scroll }

// ScrollBy moves the offset by delta lines, clamped so the viewport
// never overshoots the canvas.
func (v *Virtualizer) ScrollBy(delta, viewport int) {
	v.scroll = clamp(v.scroll+delta, 0, v.maxScroll(viewport))
}

// ScrollTo jumps to an absolute offset, clamped like ScrollBy.
func (v *Virtualizer) ScrollTo(offset, viewport int) {
	v.scroll = clamp(offset, 0, v.maxScroll(viewport))
}

// ScrollToRow aligns a row's top edge with the viewport top unless the
// row is already fully visible.
func (v *Virtualizer) ScrollToRow(i, viewport int) {
	if i < 0 || i >= v.rows {
		return
	}
	top := 0
	for r := 0; r < i; r++ {
		top += v.Height(r)
	}
	bottom := top + v.Height(i)

	if top < v.scroll {
		v.ScrollTo(top, viewport)
	} else if bottom > v.scroll+viewport {
		v.ScrollTo(bottom-viewport, viewport)
	}
}

func (v *Virtualizer) maxScroll(viewport int) int {
	m := v.TotalHeight() - viewport
	if m < 0 {
		return 0
	}
	return m
}

// Window computes the rows to materialize for the given viewport
// height, including the overscan margin on both sides. The scroll
// offset is re-clamped first, so a stale offset after Resize or row
// shrink degrades gracefully.
func (v *Virtualizer) Window(viewport int) Window {
	if v.rows == 0 || viewport <= 0 {
		return Window{First: 0, Last: -1, TotalHeight: v.TotalHeight()}
	}

	v.scroll = clamp(v.scroll, 0, v.maxScroll(viewport))

	first, last := -1, -1
	top := 0
	firstTop := 0
	for i := 0; i < v.rows; i++ {
		h := v.Height(i)
		if first == -1 && top+h > v.scroll {
			first = i
			firstTop = top
		}
		if top < v.scroll+viewport {
			last = i
		}
		top += h
		if top >= v.scroll+viewport && first != -1 {
			break
		}
	}
	if first == -1 {
		first = v.rows - 1
		firstTop = top - v.Height(first)
	}

	// Overscan: extend both edges.
	for i := 0; i < v.overscan && first > 0; i++ {
		first--
		firstTop -= v.Height(first)
	}
	last = clamp(last+v.overscan, 0, v.rows-1)

	return Window{
		First:       first,
		Last:        last,
		TopOffset:   firstTop,
		TotalHeight: v.TotalHeight(),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
