package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
)

// palette is the colour set shared by every command's output.
type palette struct {
	heading lipgloss.Style
	good    lipgloss.Style
	pending lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	struck  lipgloss.Style
	frame   lipgloss.Style
}

var pal = palette{
	heading: lipgloss.NewStyle().Bold(true),
	good:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	pending: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	muted:   lipgloss.NewStyle().Faint(true),
	struck:  lipgloss.NewStyle().Faint(true).Strikethrough(true),
	frame: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1),
}

// tone picks the marker and colour of a one-line status message.
type tone int

const (
	toneOK tone = iota
	toneWarn
	toneFail
)

func (t tone) style() (string, lipgloss.Style) {
	switch t {
	case toneWarn:
		return "!", pal.pending
	case toneFail:
		return "✖", pal.bad
	default:
		return "✔", pal.good
	}
}

func say(w io.Writer, t tone, msg string) {
	mark, st := t.style()
	fmt.Fprintln(w, st.Render(mark+" "+msg))
}

// hint prints secondary information that should not compete with results.
func hint(w io.Writer, msg string) {
	fmt.Fprintln(w, pal.muted.Render(msg))
}

func countsHeader(c model.Counts) string {
	return fmt.Sprintf("%s  %s  %s  %s",
		pal.heading.Render("Todos"),
		pal.good.Render(fmt.Sprintf("%d done", c.Completed)),
		pal.pending.Render(fmt.Sprintf("%d open", c.Active)),
		pal.muted.Render(fmt.Sprintf("%d total", c.Total)),
	)
}

// meter draws completed/total as a bar of width cells followed by "d/t done".
func meter(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(done*width/total, width)
	}
	bar := pal.good.Render(strings.Repeat("━", filled)) + pal.muted.Render(strings.Repeat("─", width-filled))
	return fmt.Sprintf("%s %s", bar, pal.muted.Render(fmt.Sprintf("%d/%d done", done, total)))
}

// printList renders the snapshot the one-shot commands leave behind.
func printList(w io.Writer, snap todos.Snapshot) {
	c := snap.Counts
	lines := []string{countsHeader(c), meter(c.Completed, c.Total, 24), ""}
	lines = append(lines, todoLines(snap.Visible)...)

	footer := fmt.Sprintf("%d items left", c.Active)
	if snap.Filter != model.FilterAll {
		footer += " · showing " + snap.Filter.String()
	}
	lines = append(lines, "", pal.muted.Render(footer))
	fmt.Fprintln(w, pal.frame.Render(strings.Join(lines, "\n")))
}

func todoLines(list []model.Todo) []string {
	if len(list) == 0 {
		return []string{pal.muted.Render("no items")}
	}
	out := make([]string, 0, len(list))
	for _, t := range list {
		id := pal.muted.Render(fmt.Sprintf("%5s", "#"+strconv.Itoa(t.ID)))
		mark, title := pal.muted.Render("○"), ansi.Truncate(t.Title, 80, "…")
		if t.Completed {
			mark, title = pal.good.Render("●"), pal.struck.Render(title)
		}
		out = append(out, id+" "+mark+" "+title)
	}
	return out
}
