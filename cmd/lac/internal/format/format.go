// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package format renders lac command output as terminal tables or JSON.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/vulntor/lac/pkg/detect"
	"github.com/vulntor/lac/pkg/signature"
)

// OutputMode selects how command output is rendered.
type OutputMode string

const (
	ModeJSON  OutputMode = "json"
	ModeTable OutputMode = "table"
)

// ParseMode maps the --output flag value to a mode. Anything but "json" is a table.
func ParseMode(mode string) OutputMode {
	if strings.EqualFold(mode, string(ModeJSON)) {
		return ModeJSON
	}
	return ModeTable
}

// Formatter writes the results of lac commands.
//
// Data goes to stdout. Status lines go to stdout in table mode and to stderr
// in JSON mode, so JSON output can be piped as is.
type Formatter interface {
	PrintJSON(data any) error
	PrintResults(results []detect.Result) error
	PrintDefinitions(catalog *signature.Catalog) error
	PrintSummary(message string) error
	PrintFailure(operation string, err error, code string, suggestions []string) error
	PrintBatchSummary(summary BatchSummary) error
	Mode() OutputMode
}

type formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	quiet  bool
	color  bool
}

// New creates a Formatter. quiet drops summary lines; color enables ANSI styling.
func New(stdout, stderr io.Writer, mode OutputMode, quiet, color bool) Formatter {
	return &formatter{stdout: stdout, stderr: stderr, mode: mode, quiet: quiet, color: color}
}

func (f *formatter) Mode() OutputMode { return f.mode }

func (f *formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *formatter) PrintSummary(message string) error {
	if f.quiet {
		return nil
	}
	if f.mode == ModeJSON {
		_, err := fmt.Fprintln(f.stderr, message)
		return err
	}
	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}
	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// table writes tab-aligned rows under upper-cased headers.
func (f *formatter) table(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)

	head := make([]string, len(headers))
	for i, h := range headers {
		head[i] = strings.ToUpper(h)
		if f.color {
			head[i] = color.New(color.Bold).Sprint(head[i])
		}
	}
	fmt.Fprintln(w, strings.Join(head, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}
