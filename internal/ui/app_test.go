package ui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/scanwatch/dashboard/internal/filter"
	"github.com/scanwatch/dashboard/internal/stats"
	"github.com/scanwatch/dashboard/internal/token"
)

func TestBackgroundColorLookup(t *testing.T) {
	assert.Equal(t, tcell.ColorNavy, backgroundColor("navy"))
	assert.Equal(t, tcell.ColorNavy, backgroundColor("NAVY"))
	assert.Equal(t, tcell.ColorBlack, backgroundColor("not-a-color"))
	assert.Equal(t, tcell.ColorBlack, backgroundColor(""))
}

func TestNextBackgroundCycles(t *testing.T) {
	name := backgroundCycle[0]
	for range backgroundCycle {
		name = nextBackground(name)
	}
	assert.Equal(t, backgroundCycle[0], name, "full cycle returns to the start")
	assert.Equal(t, backgroundCycle[0], nextBackground("not-a-color"))
}

func TestBackgroundPreferencePersistsOnCycle(t *testing.T) {
	var saved []string
	a := NewApp(token.NewCollection(), nil, stats.NewTracker(), Prefs{
		Filter:            filter.Default(),
		Background:        "navy",
		PersistBackground: func(name string) { saved = append(saved, name) },
	}, DefaultOverscan, time.Second)

	a.cycleBackground()
	a.cycleBackground()

	assert.Equal(t, []string{"darkslategray", "maroon"}, saved)
	assert.Equal(t, "maroon", a.background)
}

func TestBackgroundDefaultsWhenUnset(t *testing.T) {
	a := NewApp(token.NewCollection(), nil, stats.NewTracker(), Prefs{
		Filter: filter.Default(),
	}, DefaultOverscan, time.Second)

	assert.Equal(t, backgroundCycle[0], a.background)
}
