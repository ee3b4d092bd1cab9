package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T) *Model {
	t.Helper()
	m, err := New("6f1c2d3e-session", Options{StartDir: t.TempDir()})
	require.NoError(t, err)
	return m
}

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModelHeaderShowsSession(t *testing.T) {
	m := newModel(t)
	view := m.View()
	assert.Contains(t, view, "Prima Scholar")
	assert.Contains(t, view, "6f1c2d3e-session")
	assert.Contains(t, view, "Scholar Dashboard")
}

func TestModelNumberKeysSelectPanels(t *testing.T) {
	m := newModel(t)

	send(m, runes("2"))
	assert.Equal(t, PanelMentorship, m.Active())
	assert.Contains(t, m.View(), "Mentorship Sessions")
	assert.NotContains(t, m.View(), "Scholar Dashboard")

	send(m, runes("3"))
	assert.Equal(t, PanelDistinctions, m.Active())
	assert.Contains(t, m.View(), "Distinction Progress")

	send(m, runes("4"))
	assert.Equal(t, PanelResources, m.Active())

	send(m, runes("4"))
	assert.Equal(t, PanelResources, m.Active())

	send(m, runes("1"))
	assert.Equal(t, PanelDashboard, m.Active())
}

func TestModelReselectingActivePanelKeepsView(t *testing.T) {
	m := newModel(t)

	send(m, runes("3"))
	before := m.View()
	send(m, runes("3"))
	assert.Equal(t, before, m.View())
}

func TestModelTabCycles(t *testing.T) {
	m := newModel(t)

	send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PanelMentorship, m.Active())

	send(m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PanelResources, m.Active())
}

func TestModelSearchEchoesQuery(t *testing.T) {
	m := newModel(t)

	send(m, runes("/"))
	require.True(t, m.Dashboard().Searching())

	// digits and q are text while the field has focus
	send(m, runes("q"), runes("2"), runes(" "), runes("rhodes"))
	assert.Equal(t, PanelDashboard, m.Active())
	assert.Equal(t, "q2 rhodes", m.Dashboard().Query())

	cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.Dashboard().Searching())
	assert.Equal(t, `Searching for "q2 rhodes"`, m.Dashboard().Status())
	assert.Contains(t, m.View(), `Searching for "q2 rhodes"`)
}

func TestModelEscLeavesSearch(t *testing.T) {
	m := newModel(t)

	send(m, runes("/"), runes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Dashboard().Searching())
	assert.Empty(t, m.Dashboard().Status())

	send(m, runes("2"))
	assert.Equal(t, PanelMentorship, m.Active())
}

func TestModelNavigationDiscardsDashboardState(t *testing.T) {
	m := newModel(t)

	send(m, runes("/"), runes("nobel"), tea.KeyMsg{Type: tea.KeyEnter})
	m.Dashboard().files = append(m.Dashboard().files, "/tmp/notes.md")
	require.NotEmpty(t, m.Dashboard().Status())

	send(m, runes("3"), runes("1"))
	assert.Equal(t, PanelDashboard, m.Active())
	assert.Empty(t, m.Dashboard().Query())
	assert.Empty(t, m.Dashboard().Status())
	assert.Empty(t, m.Dashboard().SelectedFiles())
	assert.Contains(t, m.View(), "No files selected")
}

func TestModelFilePicker(t *testing.T) {
	m := newModel(t)

	cmd := send(m, runes("f"))
	assert.NotNil(t, cmd)
	assert.True(t, m.Dashboard().Picking())
	assert.Contains(t, m.View(), "Pick a document")

	// panel keys belong to the picker while it is open
	send(m, runes("2"))
	assert.Equal(t, PanelDashboard, m.Active())

	send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Dashboard().Picking())
}

func TestModelPanelKeysIgnoredOffDashboard(t *testing.T) {
	m := newModel(t)

	send(m, runes("2"))
	assert.Nil(t, send(m, runes("/")))
	assert.Nil(t, send(m, runes("f")))
	assert.False(t, m.Dashboard().Capturing())
}

func TestModelQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		m := newModel(t)
		cmd := send(m, k)
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok, "key %s", k)
	}
}

func TestModelDefaultPanel(t *testing.T) {
	m, err := New("s", Options{Default: PanelResources})
	require.NoError(t, err)
	assert.Equal(t, PanelResources, m.Active())

	_, err = New("s", Options{Default: "settings"})
	assert.ErrorIs(t, err, ErrUnknownPanel)
}
