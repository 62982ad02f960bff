package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kalambet/lenslog/internal/tracker"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

const barWidth = 20

// progressBar draws value against goal, capped at a full bar.
func progressBar(value, goal int) string {
	filled := 0
	pct := 0
	if goal > 0 {
		pct = value * 100 / goal
		filled = min(value*barWidth/goal, barWidth)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	color := colorGreen
	if pct > 110 {
		color = colorYellow
	}
	return fmt.Sprintf("%s %3d%%", colorize(color, bar), pct)
}

func writeMacros(w io.Writer, m tracker.MacroNutrients) {
	fmt.Fprintf(w, "  Calories %5d kcal\n", m.Calories)
	fmt.Fprintf(w, "  Protein  %5d g\n", m.Protein)
	fmt.Fprintf(w, "  Fat      %5d g\n", m.Fat)
	fmt.Fprintf(w, "  Carbs    %5d g\n", m.Carbs)
}

func writeFoodSummary(w io.Writer, totals, remaining tracker.MacroNutrients, goals tracker.DailyGoals, entries int) {
	fmt.Fprintf(w, "%s (%d entries, last 24 hours)\n", colorize(colorBold, "Today"), entries)
	rows := []struct {
		label            string
		value, goal, rem int
		unit             string
	}{
		{"Calories", totals.Calories, goals.Calories, remaining.Calories, "kcal"},
		{"Protein", totals.Protein, goals.Protein, remaining.Protein, "g"},
		{"Fat", totals.Fat, goals.Fat, remaining.Fat, "g"},
		{"Carbs", totals.Carbs, goals.Carbs, remaining.Carbs, "g"},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-8s %5d / %-5d %-4s %s  %d left\n", r.label, r.value, r.goal, r.unit, progressBar(r.value, r.goal), r.rem)
	}
}

func writeKnowledgeAreas(w io.Writer, k tracker.KnowledgeAreas) {
	for _, key := range tracker.KnowledgeAreaKeys {
		v, _ := k.Get(key)
		fmt.Fprintf(w, "  %-13s %s\n", key, progressBar(v, 100))
	}
}

// calendarCell is one day of a rendered month grid.
type calendarCell struct {
	Date    string
	InMonth bool
	Status  tracker.DayStatus
}

func statusSymbol(s tracker.DayStatus) string {
	switch s {
	case tracker.StatusAchieved:
		return colorize(colorGreen, "✓")
	case tracker.StatusMissed:
		return colorize(colorRed, "✗")
	default:
		return colorize(colorDim, "·")
	}
}

// writeCalendar prints a Sunday-first month grid. Each cell shows the day of
// month and its goal status; days outside the month are dimmed.
func writeCalendar(w io.Writer, year int, month time.Month, cells []calendarCell, summary tracker.MonthSummary) {
	fmt.Fprintf(w, "%s\n", colorize(colorBold, fmt.Sprintf("%s %d", month, year)))
	fmt.Fprintln(w, " Su   Mo   Tu   We   Th   Fr   Sa")
	for i, c := range cells {
		day := strings.TrimLeft(c.Date[len(c.Date)-2:], "0")
		label := fmt.Sprintf("%2s", day)
		if !c.InMonth {
			label = colorize(colorDim, label)
		}
		fmt.Fprintf(w, " %s%s ", label, statusSymbol(c.Status))
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "\nAchieved %d, missed %d of %d tracked days (%d%%)\n",
		summary.AchievedDays, summary.MissedDays, summary.TrackedDays, summary.SuccessRate)
}
