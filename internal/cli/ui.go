package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/pipeline"
)

// Terminal palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// status prints one line prefixed with a colored icon.
func status(icon string, color lipgloss.Color, msg string) {
	fmt.Println(lipgloss.NewStyle().Foreground(color).Render(icon) + " " + msg)
}

func printSuccess(format string, args ...any) {
	status(iconSuccess, colorGreen, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(iconWarning, colorYellow, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(iconInfo, colorGray, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printColorValue prints a hex color followed by a swatch in that color.
func printColorValue(key, hex string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(hex) + " " + swatch(hex))
}

// swatch renders two full blocks in the given color. Unparseable colors
// render as blank space so that tables keep their alignment.
func swatch(hex string) string {
	if errors.ValidateColor(hex) != nil && !slices.Contains(avatar.Backgrounds, hex) {
		return "  "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██")
}

// printRenderStats prints size, timings and the cache outcome on one line,
// e.g. "  2048 bytes · render 12ms · cached".
func printRenderStats(r *pipeline.Result) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d bytes", r.Stats.Bytes))}
	if d := r.Stats.RenderTime; d > 0 {
		parts = append(parts, StyleDim.Render("render "+d.Round(time.Millisecond).String()))
	}
	if d := r.Stats.PublishTime; d > 0 {
		parts = append(parts, StyleDim.Render("publish "+d.Round(time.Millisecond).String()))
	}
	if r.CacheInfo.RenderHit {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorGreen).Render("cached"))
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorGray).Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func printArchiveTable(records []avatar.ArchiveRecord) {
	if len(records) == 0 {
		printInfo("No avatars published yet")
		return
	}
	now := time.Now()
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = archiveRow(r, now)
	}
	fmt.Println(archiveTable(rows, nil, false).Render())
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }
