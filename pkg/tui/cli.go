// Package tui renders progress and summaries for the tracegen CLI.
package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

const rule = "  ─────────────────────────────────────"

// WindowLine is one row of the run summary.
type WindowLine struct {
	Location string
	Traces   int
	Events   int
	Carried  int
	Deferred int
}

// Report summarizes a generate run.
type Report struct {
	Input          string
	OriginalTraces int
	OriginalEvents int
	SourceDays     int
	WantDays       int
	Replicated     int
	Windows        []WindowLine
	Duration       time.Duration
}

// PrintReport writes the run summary to w.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render("  ✓ GENERATION COMPLETE"))
	fmt.Fprintln(w)
	field(w, "Input:", r.Input)
	field(w, "Source:", fmt.Sprintf("%s traces, %s events over %d days",
		formatNumber(int64(r.OriginalTraces)), formatNumber(int64(r.OriginalEvents)), r.SourceDays))
	field(w, "Rescaled:", fmt.Sprintf("%d days per window, %d traces replicated", r.WantDays, r.Replicated))
	fmt.Fprintln(w, mutedStyle.Render(rule))
	for _, win := range r.Windows {
		fmt.Fprintf(w, "  %s %s\n", accentStyle.Render("▸"), titleStyle.Render(win.Location))
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("    %d traces, %d events, %d carried in, %d deferred",
			win.Traces, win.Events, win.Carried, win.Deferred)))
	}
	fmt.Fprintln(w, mutedStyle.Render(rule))
	if r.Duration > 0 {
		field(w, "Time:", formatDuration(r.Duration))
	}
	fmt.Fprintln(w)
}

// LogInfo describes a source log for the info command.
type LogInfo struct {
	Path        string
	Size        int64
	Traces      int
	Events      int
	EmptyTraces int
	Activities  int
	First       time.Time
	Last        time.Time
	SourceDays  int
}

// PrintInfo writes log statistics to w.
func PrintInfo(w io.Writer, info *LogInfo) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("  "+info.Path))
	fmt.Fprintln(w, mutedStyle.Render(rule))
	if info.Size > 0 {
		field(w, "Size:", FormatBytes(info.Size))
	}
	field(w, "Traces:", fmt.Sprintf("%d (%d empty)", info.Traces, info.EmptyTraces))
	field(w, "Events:", fmt.Sprintf("%d", info.Events))
	field(w, "Activities:", fmt.Sprintf("%d", info.Activities))
	if info.SourceDays > 0 {
		field(w, "First:", info.First.Format(time.RFC3339))
		field(w, "Last:", info.Last.Format(time.RFC3339))
		field(w, "Span:", fmt.Sprintf("%d days", info.SourceDays))
	}
	fmt.Fprintln(w, mutedStyle.Render(rule))
	fmt.Fprintln(w)
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(label), titleStyle.Render(value))
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// ShowProgress creates a progress bar over total windows, drawn on w.
func ShowProgress(w io.Writer, total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
