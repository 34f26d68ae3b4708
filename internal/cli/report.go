package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/blockedby/infocompass/internal/models"
)

// previewLength is how much of a summary is echoed after a single channel run.
const previewLength = 500

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusFail  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func statusLabel(r *models.ChannelResult) string {
	switch {
	case r == nil || r.IsEmpty():
		return statusEmpty.Render("no messages")
	case r.Failed():
		return statusFail.Render("failed")
	default:
		return statusOK.Render("done")
	}
}

// previewSummary cuts s to n runes, marking the cut with "...".
func previewSummary(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func renderChannelResult(channel string, r *models.ChannelResult) string {
	var b strings.Builder
	if r.IsEmpty() {
		fmt.Fprintf(&b, "%s %s\n", statusEmpty.Render("no messages found for"), channel)
		return b.String()
	}

	b.WriteString(titleStyle.Render(channel+" processed") + "\n")
	fmt.Fprintf(&b, "messages file: %s\n", r.MessagesFile)
	fmt.Fprintf(&b, "summary file:  %s\n\n", r.SummaryFile)
	b.WriteString(headerStyle.Render("Summary preview") + "\n")
	b.WriteString(panelStyle.Render(previewSummary(r.Summary, previewLength)) + "\n")
	return b.String()
}

func renderBatchReport(results *models.BatchResult, dataDir string, took time.Duration) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Batch finished") + "\n")

	succeeded := results.Succeeded()
	empty := results.Empty()
	failed := results.Failed()
	fmt.Fprintf(&b, "%s %d   %s %d   %s %d\n",
		statusOK.Render("done:"), len(succeeded),
		statusEmpty.Render("empty:"), len(empty),
		statusFail.Render("failed:"), len(failed))

	if len(succeeded) > 0 {
		b.WriteString("\n" + headerStyle.Render("Summaries") + "\n")
		for _, ch := range succeeded {
			r, _ := results.Get(ch)
			fmt.Fprintf(&b, "  %s  %s\n", ch, r.SummaryFile)
		}
	}
	if len(empty) > 0 {
		b.WriteString("\n" + headerStyle.Render("Nothing new") + "\n")
		for _, ch := range empty {
			fmt.Fprintf(&b, "  %s\n", ch)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n" + headerStyle.Render("Failures") + "\n")
		for _, ch := range failed {
			r, _ := results.Get(ch)
			fmt.Fprintf(&b, "  %s  %s\n", ch, statusFail.Render(r.Error))
		}
	}

	if dataDir != "" {
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("files saved under %s, took %s", dataDir, took.Round(time.Second))) + "\n")
	}
	return b.String()
}
