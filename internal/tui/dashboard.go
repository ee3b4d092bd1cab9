package tui

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// DocumentTypes are the extensions the file picker offers.
var DocumentTypes = []string{".txt", ".md", ".markdown"}

// Dashboard is the scratch state of the dashboard panel: a search query and
// the files picked for upload. None of it outlives a navigation away.
type Dashboard struct {
	startDir string

	input    textinput.Model
	picker   filepicker.Model
	picking  bool
	searched string
	files    []string
}

func NewDashboard(startDir string) *Dashboard {
	d := &Dashboard{startDir: startDir}
	d.Reset()
	return d
}

// Reset discards the query and the selected files.
func (d *Dashboard) Reset() {
	in := textinput.New()
	in.Placeholder = "Search your documents"
	in.Prompt = "/ "
	in.CharLimit = 200
	in.Width = 48
	d.input = in

	d.picker = newPicker(d.startDir)
	d.picking = false
	d.searched = ""
	d.files = nil
}

func newPicker(dir string) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = DocumentTypes
	if dir != "" {
		fp.CurrentDirectory = dir
	}
	fp.Height = 10
	return fp
}

// Capturing reports whether keys should go to the dashboard rather than to
// the global bindings.
func (d *Dashboard) Capturing() bool {
	return d.input.Focused() || d.picking
}

func (d *Dashboard) Searching() bool { return d.input.Focused() }

func (d *Dashboard) Picking() bool { return d.picking }

func (d *Dashboard) FocusSearch() tea.Cmd {
	d.picking = false
	return d.input.Focus()
}

func (d *Dashboard) OpenPicker() tea.Cmd {
	d.input.Blur()
	d.picking = true
	return d.picker.Init()
}

// Cancel leaves the search field or closes the picker.
func (d *Dashboard) Cancel() {
	d.input.Blur()
	d.picking = false
}

// Search records the current query. It is a local echo only.
func (d *Dashboard) Search() {
	d.searched = strings.TrimSpace(d.input.Value())
	d.input.Blur()
}

func (d *Dashboard) Query() string { return d.input.Value() }

func (d *Dashboard) SelectedFiles() []string { return d.files }

// Status is the echo of the last search, or empty.
func (d *Dashboard) Status() string {
	if d.searched == "" {
		return ""
	}
	return `Searching for "` + d.searched + `"`
}

func (d *Dashboard) SetHeight(h int) {
	d.picker.Height = max(h, 3)
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case d.picking:
		d.picker, cmd = d.picker.Update(msg)
		if ok, path := d.picker.DidSelectFile(msg); ok {
			d.files = append(d.files, path)
			d.picking = false
		}
	case d.input.Focused():
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
			d.Search()
			return nil
		}
		d.input, cmd = d.input.Update(msg)
	}
	return cmd
}

func (d *Dashboard) View(st Styles) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Scholar Dashboard"))
	b.WriteString("\n")
	b.WriteString(d.input.View())
	b.WriteString("\n")
	if s := d.Status(); s != "" {
		b.WriteString(st.Status.Render(s))
		b.WriteString("\n")
	}

	if d.picking {
		b.WriteString("\n")
		b.WriteString(st.Muted.Render("Pick a document (esc to close)"))
		b.WriteString("\n")
		b.WriteString(d.picker.View())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("\n")
	if len(d.files) == 0 {
		b.WriteString(st.Muted.Render("No files selected. Press f to pick one."))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString("Selected files:\n")
	for _, f := range d.files {
		b.WriteString(st.Item.Render("• " + filepath.Base(f)))
		b.WriteString("\n")
	}
	return b.String()
}
