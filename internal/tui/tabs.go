package tui

import (
	"errors"
	"fmt"
)

// PanelID names one of the panels of the dashboard. The set is closed.
type PanelID string

const (
	PanelDashboard    PanelID = "dashboard"
	PanelMentorship   PanelID = "mentorship"
	PanelDistinctions PanelID = "distinctions"
	PanelResources    PanelID = "resources"
)

// PanelIDs lists every valid identifier.
var PanelIDs = []PanelID{PanelDashboard, PanelMentorship, PanelDistinctions, PanelResources}

func (id PanelID) Valid() bool {
	for _, p := range PanelIDs {
		if p == id {
			return true
		}
	}
	return false
}

var ErrUnknownPanel = errors.New("unknown panel")

// Panel maps an identifier to the function that renders it.
type Panel struct {
	ID     PanelID
	Label  string
	Render func() string
}

// Trigger is one entry of the tab bar.
type Trigger struct {
	ID     PanelID
	Label  string
	Active bool
}

// Controller keeps exactly one of its panels active and renders only that
// one.
type Controller struct {
	panels []Panel
	index  map[PanelID]int
	active PanelID
}

// NewController validates the panel set and activates defaultID.
func NewController(defaultID PanelID, panels ...Panel) (*Controller, error) {
	if len(panels) == 0 {
		return nil, errors.New("tabs: no panels")
	}

	c := &Controller{
		panels: panels,
		index:  make(map[PanelID]int, len(panels)),
	}
	for i, p := range panels {
		if !p.ID.Valid() {
			return nil, fmt.Errorf("tabs: %w %q", ErrUnknownPanel, p.ID)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("tabs: duplicate panel %q", p.ID)
		}
		if p.Render == nil {
			return nil, fmt.Errorf("tabs: panel %q has no render function", p.ID)
		}
		c.index[p.ID] = i
	}
	if _, ok := c.index[defaultID]; !ok {
		return nil, fmt.Errorf("tabs: default %w %q", ErrUnknownPanel, defaultID)
	}

	c.active = defaultID
	return c, nil
}

func (c *Controller) Active() PanelID { return c.active }

// Select activates id. An unregistered id leaves the state unchanged.
func (c *Controller) Select(id PanelID) error {
	if _, ok := c.index[id]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownPanel, id)
	}
	c.active = id
	return nil
}

// SelectIndex activates the panel at position i (0-based).
func (c *Controller) SelectIndex(i int) error {
	if i < 0 || i >= len(c.panels) {
		return fmt.Errorf("%w at position %d", ErrUnknownPanel, i+1)
	}
	c.active = c.panels[i].ID
	return nil
}

// Next and Prev cycle through the panels in declaration order.
func (c *Controller) Next() { c.step(1) }

func (c *Controller) Prev() { c.step(-1) }

func (c *Controller) step(d int) {
	n := len(c.panels)
	i := (c.index[c.active] + d + n) % n
	c.active = c.panels[i].ID
}

func (c *Controller) Triggers() []Trigger {
	out := make([]Trigger, len(c.panels))
	for i, p := range c.panels {
		out[i] = Trigger{ID: p.ID, Label: p.Label, Active: p.ID == c.active}
	}
	return out
}

// Render calls the render function of the active panel only.
func (c *Controller) Render() string {
	return c.panels[c.index[c.active]].Render()
}
