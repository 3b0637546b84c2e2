// Package cli renders LifeOS views for the terminal.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/p-blackswan/lifeos/internal/apiclient"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/stats"
	"github.com/p-blackswan/lifeos/internal/structure"
	"github.com/p-blackswan/lifeos/internal/templates"
)

// Printer writes tables to Out, color.Output when nil.
type Printer struct {
	Out io.Writer
}

func (p *Printer) out() io.Writer {
	if p.Out == nil {
		return color.Output
	}
	return p.Out
}

func (p *Printer) title(s string) {
	_, _ = color.New(color.Bold, color.Underline).Fprintln(p.out(), s)
}

func (p *Printer) none() {
	_, _ = color.New(color.Faint, color.Italic).Fprint(p.out(), " none\n\n")
}

func (p *Printer) table() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	return tbl
}

func (p *Printer) flush(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(p.out(), tbl)
	_, _ = fmt.Fprintln(p.out(), "")
}

// Structures lists structures, marking the one the sidebar is scoped to.
func (p *Printer) Structures(list []structure.Structure, mode nav.Mode) {
	p.title("Structures")
	if len(list) == 0 {
		p.none()
		return
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	scoped, _ := mode.StructureID()

	tbl := p.table()
	tbl.AddRow("", bold.Sprint("ID"), bold.Sprint("Name"), bold.Sprint("Levels"))
	for _, s := range list {
		mark := ""
		if s.ID == scoped {
			mark = "*"
		}
		name := s.Name
		if structure.IsDefault(s) {
			name += faint.Sprint(" (default)")
		}
		tbl.AddRow(mark, faint.Sprint(s.ID), name, strings.Join(s.Levels, " > "))
	}
	p.flush(tbl)
}

// Templates lists the structure templates.
func (p *Printer) Templates(list []templates.Template) {
	p.title("Templates")
	if len(list) == 0 {
		p.none()
		return
	}
	bold := color.New(color.Bold)
	tbl := p.table()
	tbl.AddRow(bold.Sprint("Key"), bold.Sprint("Name"), bold.Sprint("Levels"))
	for _, t := range list {
		tbl.AddRow(t.Key, t.Name, strings.Join(t.Levels, " > "))
	}
	p.flush(tbl)
}

// Sidebar prints a resolved sidebar; the active entry is highlighted.
func (p *Printer) Sidebar(sb nav.Sidebar) {
	active := color.New(color.FgHiCyan, color.Bold)
	faint := color.New(color.Faint)

	link := func(indent string, l nav.Link) string {
		s := indent + l.Name
		if l.Active {
			return active.Sprint(s)
		}
		return s
	}

	tbl := p.table()
	if sb.Scoped != nil {
		p.title(sb.Scoped.Name)
		for _, l := range sb.Scoped.Utilities {
			tbl.AddRow(link("", l), faint.Sprint(l.Href))
		}
		tbl.AddRow("", "")
		for _, l := range sb.Scoped.Levels {
			tbl.AddRow(link("", l), faint.Sprint(l.Href))
		}
		p.flush(tbl)
		return
	}

	p.title("Navigation")
	for _, l := range sb.Items {
		tbl.AddRow(link("", l), faint.Sprint(l.Href))
	}
	if len(sb.Structures) > 0 {
		tbl.AddRow("", "")
	}
	for _, s := range sb.Structures {
		marker := "+ "
		if s.Expanded {
			marker = "- "
		}
		tbl.AddRow(marker+s.Name, faint.Sprint(s.ID))
		for _, l := range s.Levels {
			tbl.AddRow(link("    ", l), faint.Sprint(l.Href))
		}
	}
	p.flush(tbl)
}

// HabitStats prints streaks and completion rates.
func (p *Printer) HabitStats(list []stats.HabitStats) {
	p.title("Habits")
	if len(list) == 0 {
		p.none()
		return
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	tbl := p.table()
	tbl.AddRow("", bold.Sprint("Habit"), bold.Sprint("Streak"), bold.Sprint("Rate"))
	for _, h := range list {
		done := " "
		if h.CompletedToday {
			done = green.Sprint("x")
		}
		tbl.AddRow(done, h.Name, strconv.Itoa(h.Streak), strconv.Itoa(h.CompletionRate)+"%")
	}
	tbl.RightAlign(2)
	tbl.RightAlign(3)
	p.flush(tbl)
}

// GoalProgress prints the goals roll-up, or an empty state.
func (p *Printer) GoalProgress(s stats.ProgressSummary) {
	p.title("Goals")
	if s.Empty {
		_, _ = color.New(color.Faint, color.Italic).Fprint(p.out(), " no goals yet\n\n")
		return
	}
	tbl := p.table()
	tbl.AddRow("Total", strconv.Itoa(s.Count))
	tbl.AddRow("Active", strconv.Itoa(s.Active))
	tbl.AddRow("Completed", strconv.Itoa(s.Completed))
	tbl.AddRow("Average progress", fmt.Sprintf("%.0f%%", s.Average))
	tbl.RightAlign(1)
	p.flush(tbl)
}

// Calendar prints a month grid, Sunday first. Days outside the month are
// faint, today is bold and each day shows its event count.
func (p *Printer) Calendar(cal apiclient.Calendar) {
	p.title(cal.Month + " (" + cal.Timezone + ")")

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	today := color.New(color.Bold, color.FgHiYellow)

	tbl := p.table()
	tbl.AddRow(bold.Sprint("Sun"), bold.Sprint("Mon"), bold.Sprint("Tue"), bold.Sprint("Wed"),
		bold.Sprint("Thu"), bold.Sprint("Fri"), bold.Sprint("Sat"))

	row := make([]interface{}, 0, 7)
	for _, d := range cal.Days {
		cell := strings.TrimLeft(d.Date[len(d.Date)-2:], "0")
		if n := len(d.Events); n > 0 {
			cell += fmt.Sprintf("(%d)", n)
		}
		switch {
		case d.IsToday:
			cell = today.Sprint(cell)
		case !d.InMonth:
			cell = faint.Sprint(cell)
		}
		row = append(row, cell)
		if len(row) == 7 {
			tbl.AddRow(row...)
			row = row[:0]
		}
	}
	if len(row) > 0 {
		tbl.AddRow(row...)
	}
	for i := 0; i < 7; i++ {
		tbl.RightAlign(i)
	}
	p.flush(tbl)
}
