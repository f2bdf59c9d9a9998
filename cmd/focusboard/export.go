// Package main is the entry point for the focusboard application.
// This file contains the export subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusboard/internal/fsutil"
	"focusboard/internal/model"
	"focusboard/internal/reports"
)

// exportHelpText is the help message for the export subcommand.
const exportHelpText = `focusboard export - Generate productivity reports

USAGE:
    focusboard export [OPTIONS] [DATE]

OPTIONS:
    -d, --daily        Generate daily report (default)
    -w, --weekly       Generate weekly report
    -f, --format FMT   Output format: markdown (default) or json
    -o, --output FILE  Write to file instead of stdout
    -h, --help         Show this help message

ARGUMENTS:
    DATE               Date for report (YYYY-MM-DD). Defaults to today.
                       Weekly reports cover the Sunday-to-Saturday week
                       containing DATE.

DESCRIPTION:
    Summarizes completed todos, focus time per project and the daily review.
    Reports can be output as Markdown (human-readable) or JSON
    (machine-readable).

EXAMPLES:
    # Today's report in Markdown
    focusboard export

    # Specific date
    focusboard export 2026-10-14

    # Weekly JSON report to file
    focusboard export --weekly --format json --output weekly.json
`

// runExport handles the "focusboard export" subcommand.
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	dailyFlag := fs.Bool("daily", false, "generate daily report")
	fs.BoolVar(dailyFlag, "d", false, "generate daily report (shorthand)")

	weeklyFlag := fs.Bool("weekly", false, "generate weekly report")
	fs.BoolVar(weeklyFlag, "w", false, "generate weekly report (shorthand)")

	formatFlag := fs.String("format", "markdown", "output format: markdown or json")
	fs.StringVar(formatFlag, "f", "markdown", "output format (shorthand)")

	outputFlag := fs.String("output", "", "write to file instead of stdout")
	fs.StringVar(outputFlag, "o", "", "write to file (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, exportHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(exportHelpText)
		os.Exit(0)
	}

	format := *formatFlag
	switch format {
	case "markdown", "json":
	case "md":
		format = "markdown"
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid format %q. Use 'markdown' or 'json'.\n", format)
		os.Exit(1)
	}

	date := time.Now()
	if fs.NArg() > 0 {
		parsed, err := time.ParseInLocation(model.DateLayout, fs.Arg(0), time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q. Use YYYY-MM-DD format.\n", fs.Arg(0))
			os.Exit(1)
		}
		date = parsed
	}

	// --daily wins when both are given.
	weekly := *weeklyFlag && !*dailyFlag

	b := mustOpenBoard(loadConfig(), stderrLogger())
	defer closeBoard(b)

	output, err := renderReport(reports.NewGenerator(b.store), date, weekly, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting report: %v\n", err)
		os.Exit(1)
	}

	if *outputFlag == "" {
		fmt.Print(output)
		return
	}
	if dir := filepath.Dir(*outputFlag); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}
	}
	if err := fsutil.WriteFileAtomic(*outputFlag, []byte(output), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Report written to %s\n", *outputFlag)
}

func renderReport(gen *reports.Generator, date time.Time, weekly bool, format string) (string, error) {
	if weekly {
		report := gen.GenerateWeekly(date)
		if format == "json" {
			data, err := reports.FormatWeeklyJSON(report)
			return string(data), err
		}
		return reports.FormatWeeklyMarkdown(report), nil
	}

	report := gen.GenerateDaily(date)
	if format == "json" {
		data, err := reports.FormatDailyJSON(report)
		return string(data), err
	}
	return reports.FormatDailyMarkdown(report), nil
}
