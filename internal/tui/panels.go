package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// MentorSession is a fixed record shown on the mentorship panel.
type MentorSession struct {
	Mentor string
	Topic  string
	Date   string
	Status string
}

// Achievement is a fixed record shown on the distinctions panel. Progress is
// stored as an integer percentage and shown as-is.
type Achievement struct {
	Name     string
	Category string
	Progress int
}

// ResourceLink is a fixed record shown on the resources panel.
type ResourceLink struct {
	Title string
	Kind  string
	URL   string
}

var mentorSessions = []MentorSession{
	{Mentor: "Dr. Elena Ruiz", Topic: "Research proposal review", Date: "Mon 10:00", Status: "scheduled"},
	{Mentor: "Prof. Samuel Okafor", Topic: "Rhodes application essay", Date: "Wed 15:30", Status: "scheduled"},
	{Mentor: "Dr. Mei Chen", Topic: "Conference abstract feedback", Date: "Last Fri", Status: "completed"},
}

var achievements = []Achievement{
	{Name: "Summa Cum Laude", Category: "academic", Progress: 85},
	{Name: "Phi Beta Kappa", Category: "honor society", Progress: 70},
	{Name: "Rhodes Scholarship", Category: "scholarship", Progress: 45},
	{Name: "Research Excellence", Category: "research", Progress: 60},
}

var resourceLinks = []ResourceLink{
	{Title: "Writing a Winning Personal Statement", Kind: "guide", URL: "https://www.rhodeshouse.ox.ac.uk/scholarships/apply/"},
	{Title: "Undergraduate Research Primer", Kind: "course", URL: "https://www.cur.org/"},
	{Title: "Phi Beta Kappa Membership", Kind: "reference", URL: "https://www.pbk.org/"},
}

// ProgressFill converts a stored percentage to the bar fill fraction. Values
// outside 0..100 are clamped.
func ProgressFill(v int) float64 {
	return float64(max(0, min(v, 100))) / 100
}

// ProgressLabel shows the stored value without clamping.
func ProgressLabel(v int) string {
	return fmt.Sprintf("%d%%", v)
}

func newProgressBar() progress.Model {
	return progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
}

func renderMentorship(st Styles, sessions []MentorSession) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Mentorship Sessions"))
	b.WriteString("\n")
	for _, s := range sessions {
		line := fmt.Sprintf("%s · %s  %s", s.Mentor, s.Topic, st.Muted.Render(s.Date+" ("+s.Status+")"))
		b.WriteString(st.Item.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func renderDistinctions(st Styles, bar progress.Model, list []Achievement) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Distinction Progress"))
	b.WriteString("\n")
	for _, a := range list {
		b.WriteString(st.Item.Render(fmt.Sprintf("%s %s", a.Name, st.Muted.Render("("+a.Category+")"))))
		b.WriteString("\n")
		b.WriteString(st.Item.Render(bar.ViewAs(ProgressFill(a.Progress)) + " " + ProgressLabel(a.Progress)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderResources(st Styles, links []ResourceLink) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Elite Resources"))
	b.WriteString("\n")
	for _, l := range links {
		b.WriteString(st.Item.Render(fmt.Sprintf("[%s] %s", l.Kind, l.Title)))
		b.WriteString("\n")
		b.WriteString(st.Item.Render(st.Muted.Render(l.URL)))
		b.WriteString("\n")
	}
	return b.String()
}
