package main

import (
	"fmt"
	"os"
	"strings"

	"ideavault/internal/vault"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
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

// --- record formatting ---

const dateFormat = "2006-01-02"

func problemLine(p vault.Problem) string {
	line := fmt.Sprintf("%s  %s  sev %d/5  %-6s  %s",
		colorize(colorCyan, fmt.Sprintf("#%d", p.ID)),
		colorize(colorBold, fmt.Sprintf("[%s]", p.Status)),
		p.Severity,
		p.Frequency,
		p.Title,
	)
	if p.Tags != "" {
		line += fmt.Sprintf("  (%s)", p.Tags)
	}
	return line
}

func ideaLine(i vault.Idea) string {
	score := "unscored"
	if i.Score != nil {
		score = fmt.Sprintf("score %d", *i.Score)
	}
	line := fmt.Sprintf("%s  %s  %-8s  %s",
		colorize(colorCyan, fmt.Sprintf("#%d", i.ID)),
		colorize(colorBold, fmt.Sprintf("[%s]", i.Status)),
		score,
		i.Title,
	)
	if i.Tags != "" {
		line += fmt.Sprintf("  (%s)", i.Tags)
	}
	return line
}

func noteLine(n vault.Note) string {
	content := n.Content
	if len(content) > 80 {
		content = content[:80] + "..."
	}
	content = strings.ReplaceAll(content, "\n", " ")

	refs := make([]string, 0, 2)
	if n.ProblemID != nil {
		refs = append(refs, fmt.Sprintf("problem #%d", *n.ProblemID))
	}
	if n.IdeaID != nil {
		refs = append(refs, fmt.Sprintf("idea #%d", *n.IdeaID))
	}
	suffix := ""
	if len(refs) > 0 {
		suffix = "  → " + strings.Join(refs, ", ")
	}

	return fmt.Sprintf("%s  %s  %s  %s%s",
		colorize(colorCyan, fmt.Sprintf("#%d", n.ID)),
		colorize(colorBold, fmt.Sprintf("[%s]", n.Type)),
		n.CreatedAt.Format(dateFormat),
		content,
		suffix,
	)
}

func printField(w *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, label+":"), value)
}
