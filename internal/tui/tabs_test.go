package tui

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingPanels(calls map[PanelID]int) []Panel {
	panels := make([]Panel, 0, len(PanelIDs))
	for _, id := range PanelIDs {
		panels = append(panels, Panel{ID: id, Label: string(id), Render: func() string {
			calls[id]++
			return "panel:" + string(id)
		}})
	}
	return panels
}

func TestControllerSelectIsUnconditional(t *testing.T) {
	calls := map[PanelID]int{}
	c, err := NewController(PanelDashboard, countingPanels(calls)...)
	require.NoError(t, err)
	assert.Equal(t, PanelDashboard, c.Active())

	for _, id := range []PanelID{PanelResources, PanelResources, PanelMentorship, PanelDashboard} {
		require.NoError(t, c.Select(id))
		assert.Equal(t, id, c.Active())
	}
}

func TestControllerExactlyOneTriggerActive(t *testing.T) {
	c, err := NewController(PanelDistinctions, countingPanels(map[PanelID]int{})...)
	require.NoError(t, err)

	for _, id := range PanelIDs {
		require.NoError(t, c.Select(id))
		active := 0
		for _, tr := range c.Triggers() {
			if tr.Active {
				active++
				assert.Equal(t, id, tr.ID)
			}
		}
		assert.Equal(t, 1, active)
	}
}

func TestControllerRendersOnlyActivePanel(t *testing.T) {
	calls := map[PanelID]int{}
	c, err := NewController(PanelDashboard, countingPanels(calls)...)
	require.NoError(t, err)

	require.NoError(t, c.Select(PanelMentorship))
	assert.Equal(t, "panel:mentorship", c.Render())
	assert.Equal(t, map[PanelID]int{PanelMentorship: 1}, calls)
}

func TestControllerUnknownPanel(t *testing.T) {
	c, err := NewController(PanelDashboard, countingPanels(map[PanelID]int{})...)
	require.NoError(t, err)

	require.NoError(t, c.Select(PanelResources))
	assert.ErrorIs(t, c.Select("settings"), ErrUnknownPanel)
	assert.Equal(t, PanelResources, c.Active())

	assert.ErrorIs(t, c.SelectIndex(4), ErrUnknownPanel)
	assert.Equal(t, PanelResources, c.Active())
}

func TestNewControllerValidation(t *testing.T) {
	render := func() string { return "" }

	tests := []struct {
		name   string
		def    PanelID
		panels []Panel
	}{
		{"no panels", PanelDashboard, nil},
		{"unknown id", PanelDashboard, []Panel{{ID: "settings", Render: render}}},
		{"duplicate", PanelDashboard, []Panel{{ID: PanelDashboard, Render: render}, {ID: PanelDashboard, Render: render}}},
		{"missing render", PanelDashboard, []Panel{{ID: PanelDashboard}}},
		{"default not declared", PanelResources, []Panel{{ID: PanelDashboard, Render: render}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewController(tt.def, tt.panels...)
			assert.Error(t, err)
		})
	}
}

func TestControllerCycles(t *testing.T) {
	c, err := NewController(PanelDashboard, countingPanels(map[PanelID]int{})...)
	require.NoError(t, err)

	c.Prev()
	assert.Equal(t, PanelResources, c.Active())
	c.Next()
	c.Next()
	assert.Equal(t, PanelMentorship, c.Active())
}

func TestControllerTriggersFollowDeclarationOrder(t *testing.T) {
	c, err := NewController(PanelMentorship, countingPanels(map[PanelID]int{})...)
	require.NoError(t, err)

	want := []Trigger{
		{ID: PanelDashboard, Label: "dashboard"},
		{ID: PanelMentorship, Label: "mentorship", Active: true},
		{ID: PanelDistinctions, Label: "distinctions"},
		{ID: PanelResources, Label: "resources"},
	}
	if diff := cmp.Diff(want, c.Triggers()); diff != "" {
		t.Errorf("triggers mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerReselectKeepsRenderedOutput(t *testing.T) {
	c, err := NewController(PanelDistinctions, countingPanels(map[PanelID]int{})...)
	require.NoError(t, err)

	before := c.Render()
	triggers := c.Triggers()
	require.NoError(t, c.Select(PanelDistinctions))
	assert.Equal(t, before, c.Render())
	assert.Equal(t, triggers, c.Triggers())
}
