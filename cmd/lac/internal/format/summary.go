// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// BatchSummary holds the totals of a batch replay.
type BatchSummary struct {
	Records  int           `json:"records"`
	Matched  int           `json:"matched"`  // records with at least one result
	Results  int           `json:"results"`  // total results emitted
	Versions int           `json:"versions"` // results carrying a version
	Duration time.Duration `json:"-"`
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	// Count styles
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Yellow
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func (f *formatter) render(style lipgloss.Style, s string) string {
	if !f.color {
		return s
	}
	return style.Render(s)
}

// PrintBatchSummary prints the batch totals.
// Example output:
//
//	Summary:
//	  ✓ Matched:  12 of 40 records
//	  ✓ Results:  19 (7 with version)
//	  ⚠ No match: 28
//	  Took 35ms
func (f *formatter) PrintBatchSummary(summary BatchSummary) error {
	if f.quiet {
		return nil
	}

	if f.mode == ModeJSON {
		_, err := fmt.Fprintf(f.stderr, "records=%d matched=%d results=%d versions=%d duration=%s\n",
			summary.Records, summary.Matched, summary.Results, summary.Versions, summary.Duration)
		return err
	}

	var sb strings.Builder
	sb.WriteString("\n" + f.render(titleStyle, "Summary:") + "\n")
	sb.WriteString(f.render(okStyle, fmt.Sprintf("  ✓ Matched:  %d of %d records", summary.Matched, summary.Records)) + "\n")
	sb.WriteString(f.render(okStyle, fmt.Sprintf("  ✓ Results:  %d (%d with version)", summary.Results, summary.Versions)) + "\n")
	if missed := summary.Records - summary.Matched; missed > 0 {
		sb.WriteString(f.render(warnStyle, fmt.Sprintf("  ⚠ No match: %d", missed)) + "\n")
	}
	if summary.Duration > 0 {
		sb.WriteString(f.render(hintStyle, fmt.Sprintf("  Took %s", summary.Duration.Round(time.Millisecond))) + "\n")
	}

	_, err := f.stdout.Write([]byte(sb.String()))
	return err
}

// PrintFailure prints a failed operation with suggestions.
// Example output:
//
//	✗ Failed to validate catalog: invalid catalog: definition 0 (x): service.regex: invalid regex
//
//	💡 Suggestions:
//	  → Check the catalog:         lac catalog validate <path>
func (f *formatter) PrintFailure(operation string, err error, code string, suggestions []string) error {
	if err == nil {
		return nil
	}

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":     false,
			"operation":   operation,
			"error":       err.Error(),
			"error_code":  code,
			"suggestions": suggestions,
		})
	}

	var sb strings.Builder
	sb.WriteString(f.render(failStyle, fmt.Sprintf("✗ Failed to %s: %v", operation, err)) + "\n")

	if len(suggestions) > 0 && !f.quiet {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	_, writeErr := f.stderr.Write([]byte(sb.String()))
	return writeErr
}
