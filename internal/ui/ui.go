package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED") // purple
	secondaryColor = lipgloss.Color("#10B981") // green
	mutedColor     = lipgloss.Color("#6B7280") // gray
	dangerColor    = lipgloss.Color("#EF4444") // red
	warnColor      = lipgloss.Color("#F59E0B") // yellow

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().Foreground(secondaryColor)
	errorStyle   = lipgloss.NewStyle().Foreground(dangerColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	infoStyle    = lipgloss.NewStyle().Foreground(primaryColor)
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(22)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	headerCellStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
)

// Interactive reports whether stdout is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func ShowHeader(title string) {
	fmt.Println(titleStyle.Render(title))
}

func ShowLoading(format string, args ...any) {
	fmt.Println(mutedStyle.Render(" " + fmt.Sprintf(format, args...) + "..."))
}

func ShowSuccess(format string, args ...any) {
	fmt.Println(successStyle.Render(" ✓ " + fmt.Sprintf(format, args...)))
}

func ShowError(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render(" ✗ "+msg))
}

func ShowWarning(format string, args ...any) {
	fmt.Println(warnStyle.Render(" ! " + fmt.Sprintf(format, args...)))
}

func ShowInfo(format string, args ...any) {
	fmt.Println(infoStyle.Render(" ℹ " + fmt.Sprintf(format, args...)))
}

// ShowField prints an aligned "label value" line.
func ShowField(label string, value any) {
	fmt.Printf("  %s%v\n", labelStyle.Render(label), value)
}

// ShowTable prints rows under headers with a rounded border.
func ShowTable(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		})
	fmt.Println(t.Render())
}

// Muted renders s in the secondary text color.
func Muted(s string) string { return mutedStyle.Render(s) }

// YesNo renders a boolean as a colored check or cross.
func YesNo(b bool) string {
	if b {
		return successStyle.Render("yes")
	}
	return errorStyle.Render("no")
}
