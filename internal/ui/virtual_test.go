package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualizerExpandChangesOnlyThatRow(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(100)

	base := v.TotalHeight()
	assert.Equal(t, 100*CollapsedRowHeight, base)

	v.Toggle(42)
	assert.True(t, v.Expanded(42))
	assert.Equal(t, ExpandedRowHeight, v.Height(42))
	assert.Equal(t, CollapsedRowHeight, v.Height(41))
	assert.Equal(t, CollapsedRowHeight, v.Height(43))

	// Total scroll height moves by exactly the mode delta.
	assert.Equal(t, base+(ExpandedRowHeight-CollapsedRowHeight), v.TotalHeight())

	v.Toggle(42)
	assert.Equal(t, base, v.TotalHeight())
}

func TestVirtualizerToggleInvalidatesOnlyOwnMeasurement(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(10)

	v.Measure(3, 4)
	v.Measure(5, 7)
	require.Equal(t, 4, v.Height(3))
	require.Equal(t, 7, v.Height(5))

	v.Toggle(5)

	assert.Equal(t, 4, v.Height(3), "unrelated measurement must survive")
	assert.Equal(t, ExpandedRowHeight, v.Height(5), "toggled row falls back to the mode estimate")
}

func TestVirtualizerToggleKeepsScroll(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(100)
	v.ScrollTo(60, 30)
	require.Equal(t, 60, v.Scroll())

	v.Toggle(25)
	assert.Equal(t, 60, v.Scroll())
}

func TestVirtualizerResizeClearsMeasurementsKeepsScroll(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(50)
	v.Measure(0, 5)
	v.Measure(1, 6)
	v.ScrollTo(40, 20)

	v.Resize()

	assert.Equal(t, CollapsedRowHeight, v.Height(0))
	assert.Equal(t, CollapsedRowHeight, v.Height(1))
	assert.Equal(t, 40, v.Scroll())
}

func TestVirtualizerResetRowsScrollsToTop(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(50)
	v.Toggle(3)
	v.Measure(4, 9)
	v.ScrollTo(40, 20)

	v.ResetRows(8)

	assert.Zero(t, v.Scroll())
	assert.False(t, v.Expanded(3))
	assert.Equal(t, CollapsedRowHeight, v.Height(4))
	assert.Equal(t, 8, v.RowCount())
}

func TestVirtualizerWindowOverscan(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(100)

	// Viewport shows rows 10..19 (30 lines at height 3, scroll 30).
	v.ScrollTo(30, 30)
	w := v.Window(30)

	assert.Equal(t, 5, w.First, "overscan extends 5 rows above")
	assert.Equal(t, 24, w.Last, "overscan extends 5 rows below")
	assert.Equal(t, 5*CollapsedRowHeight, w.TopOffset)
	assert.Equal(t, 100*CollapsedRowHeight, w.TotalHeight)
}

func TestVirtualizerCustomOverscan(t *testing.T) {
	v := NewVirtualizer(100, 2)
	assert.Equal(t, 100, v.RowCount())

	// Viewport shows rows 10..19; overscan extends 2 rows either side.
	v.ScrollTo(30, 30)
	w := v.Window(30)
	assert.Equal(t, 8, w.First)
	assert.Equal(t, 21, w.Last)

	flush := NewVirtualizer(100, 0)
	flush.ScrollTo(30, 30)
	w = flush.Window(30)
	assert.Equal(t, 10, w.First, "zero overscan materializes only visible rows")
	assert.Equal(t, 19, w.Last)
}

func TestVirtualizerWindowClampsAtEdges(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(10)

	w := v.Window(12)
	assert.Equal(t, 0, w.First)
	assert.LessOrEqual(t, w.Last, 9)

	v.ScrollTo(10_000, 12)
	w = v.Window(12)
	assert.Equal(t, 9, w.Last)
	assert.Equal(t, v.TotalHeight()-12, v.Scroll())
}

func TestVirtualizerWindowEmpty(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(0)

	w := v.Window(20)
	assert.Equal(t, 0, w.First)
	assert.Equal(t, -1, w.Last)
	assert.Zero(t, w.TotalHeight)
}

func TestVirtualizerWindowUsesMeasuredHeights(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(3)
	v.Measure(0, 10)
	v.Measure(1, 10)
	v.Measure(2, 10)

	w := v.Window(15)
	assert.Equal(t, 0, w.First)
	assert.Equal(t, 2, w.Last, "overscan clamps to the last row")
	assert.Equal(t, 30, w.TotalHeight)
}

func TestVirtualizerScrollToRow(t *testing.T) {
	v := NewVirtualizer(0, DefaultOverscan)
	v.ResetRows(100)

	v.ScrollToRow(50, 30)
	assert.Equal(t, 50*CollapsedRowHeight+CollapsedRowHeight-30, v.Scroll(),
		"row bottom aligns with viewport bottom when scrolling down")

	v.ScrollToRow(10, 30)
	assert.Equal(t, 10*CollapsedRowHeight, v.Scroll(),
		"row top aligns with viewport top when scrolling up")

	before := v.Scroll()
	v.ScrollToRow(11, 30)
	assert.Equal(t, before, v.Scroll(), "fully visible row does not move the viewport")
}
