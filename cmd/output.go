package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/umeshrajanna/deepship-api/pkg/tui/theme"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorCyan)
	hintStyle   = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(theme.ColorError)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorViolet).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printTable writes rows as a bordered table
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
