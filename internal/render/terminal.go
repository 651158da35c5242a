package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/banshee-data/spat.report/internal/signal"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiClear = "\033[H\033[2J"
)

var ansiColors = map[signal.Color]string{
	signal.Red:    "\033[31m",
	signal.Yellow: "\033[33m",
	signal.Green:  "\033[32m",
}

var emoji = map[signal.Color]string{
	signal.Red:    "🔴",
	signal.Yellow: "🟡",
	signal.Green:  "🟢",
}

// TerminalOptions controls screen handling.
type TerminalOptions struct {
	NoClear bool // scroll instead of redrawing in place
	NoColor bool
}

// Terminal draws the card as a boxed panel.
type Terminal struct {
	w     io.Writer
	clear bool
	color bool
}

// NewTerminal returns a Terminal writing to w. Clearing and ANSI colour are
// turned off when w is a file that is not a terminal.
func NewTerminal(w io.Writer, opts TerminalOptions) *Terminal {
	tty := true
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Terminal{
		w:     w,
		clear: tty && !opts.NoClear,
		color: tty && !opts.NoColor,
	}
}

func (t *Terminal) Present(c Card) error {
	var b strings.Builder
	if t.clear {
		b.WriteString(ansiClear)
	}

	title := fmt.Sprintf("Approaching: %s  (ID: %s)", orDash(c.IntersectionName), orDash(c.IntersectionID))
	if t.color {
		title = ansiBold + title + ansiReset
	}
	b.WriteString(title)
	b.WriteString("\n\nOn your lane, the next light:\n\n")

	next := c.NextColor()
	lines := []string{
		fmt.Sprintf("%s  CURRENT: %-6s", emoji[c.Color], strings.ToUpper(c.Color.String())),
		fmt.Sprintf("%s  Changes to %-6s %s", emoji[next], strings.ToUpper(next.String()), c.Countdown()),
	}
	colors := []signal.Color{c.Color, next}
	for _, row := range box(lines) {
		b.WriteString(row.text(t.color, colors))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\n(lane %d, SG %s)\n\n", c.LaneID, intOrDash(c.SignalGroup))
	_, err := io.WriteString(t.w, b.String())
	return err
}

// boxRow is one line of the panel; body >= 0 marks a content row.
type boxRow struct {
	left, content, right string
	body                 int
}

func (r boxRow) text(color bool, colors []signal.Color) string {
	if !color || r.body < 0 {
		return r.left + r.content + r.right
	}
	return r.left + ansiColors[colors[r.body]] + r.content + ansiReset + r.right
}

// box frames lines in a border sized by display width, so wide glyphs stay
// aligned.
func box(lines []string) []boxRow {
	inner := 0
	for _, l := range lines {
		inner = max(inner, runewidth.StringWidth(l))
	}
	rule := strings.Repeat("─", inner+4)
	rows := []boxRow{{left: "┌", content: rule, right: "┐", body: -1}}
	for i, l := range lines {
		rows = append(rows, boxRow{
			left:    "│  ",
			content: runewidth.FillRight(l, inner),
			right:   "  │",
			body:    i,
		})
	}
	return append(rows, boxRow{left: "└", content: rule, right: "┘", body: -1})
}
