// Package main is the entry point for the focusboard application.
// This file contains the import subcommand handler.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"focusboard/internal/importer"
	"focusboard/internal/model"
)

// importHelpText is the help message for the import subcommand.
const importHelpText = `focusboard import - Import todos from other apps

USAGE:
    focusboard import [OPTIONS] <format> <file>

FORMATS:
    todoist      Import from Todoist CSV backup
    taskwarrior  Import from Taskwarrior JSON export

OPTIONS:
    --dry-run         Preview import without making changes
    --project ID      Put every todo in this project
    --skip-completed  Leave out todos that are already done
    -h, --help        Show this help message

DESCRIPTION:
    Project names found in the export are matched against your projects by
    title (ignoring case); unknown names become new projects.

FIELD MAPPING:
    Todoist:
      - CONTENT → todo text
      - PRIORITY: 1..4 → priority 1..4 (1 is highest)
      - DATE → due date

    Taskwarrior:
      - description → todo text
      - project → project
      - priority: H → 1, M → 3, L → 5
      - due → due date
      - status: completed → marks the todo as done
      - Deleted tasks are skipped

EXAMPLES:
    # Import from Todoist
    focusboard import todoist ~/Downloads/Todoist_backup.csv

    # Import from Taskwarrior into one project
    task export > tasks.json
    focusboard import --project p-123 taskwarrior tasks.json

    # Preview before importing
    focusboard import --dry-run todoist backup.csv
`

// runImport handles the "focusboard import" subcommand.
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	dryRunFlag := fs.Bool("dry-run", false, "preview import without making changes")
	projectFlag := fs.String("project", "", "put every todo in this project")
	skipFlag := fs.Bool("skip-completed", false, "skip todos that are already done")
	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, importHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(importHelpText)
		os.Exit(0)
	}

	if fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Error: missing arguments\n\n")
		fmt.Fprintf(os.Stderr, "Usage: focusboard import <format> <file>\n")
		fmt.Fprintf(os.Stderr, "Formats: %s\n", strings.Join(importer.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nRun 'focusboard import --help' for more information.\n")
		os.Exit(1)
	}

	format := strings.ToLower(fs.Arg(0))
	filePath := fs.Arg(1)

	imp := importer.GetImporter(format)
	if imp == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", format)
		fmt.Fprintf(os.Stderr, "Supported formats: %s\n", strings.Join(importer.SupportedFormats(), ", "))
		os.Exit(1)
	}

	file, err := os.Open(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	if *dryRunFlag {
		runImportDryRun(imp, file)
		return
	}
	runImportActual(imp, file, importer.Options{ProjectID: *projectFlag, SkipCompleted: *skipFlag})
}

// runImportDryRun previews the import without making changes.
func runImportDryRun(imp importer.Importer, r io.Reader) {
	todos, err := imp.Preview(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing file: %v\n", err)
		os.Exit(1)
	}

	if len(todos) == 0 {
		fmt.Println("No todos found to import.")
		return
	}

	fmt.Printf("Preview: %d todos to import\n", len(todos))
	fmt.Println("────────────────────────────")

	const showMax = 20
	for _, td := range todos[:min(len(todos), showMax)] {
		fmt.Printf("  %s", td.Text)

		var details []string
		if td.Project != "" {
			details = append(details, td.Project)
		}
		if td.Priority != 0 {
			details = append(details, fmt.Sprintf("p%d", td.Priority))
		}
		if td.DueDate != nil {
			details = append(details, td.DueDate.Format(model.DateLayout))
		}
		if td.Done {
			details = append(details, "done")
		}

		if len(details) > 0 {
			fmt.Printf(" (%s)", strings.Join(details, ", "))
		}
		fmt.Println()
	}

	if len(todos) > showMax {
		fmt.Printf("  ... and %d more\n", len(todos)-showMax)
	}

	fmt.Println()
	fmt.Println("Run without --dry-run to import.")
}

// runImportActual writes the parsed todos to the board.
func runImportActual(imp importer.Importer, r io.Reader, opts importer.Options) {
	b := mustOpenBoard(loadConfig(), stderrLogger())
	defer closeBoard(b)

	result, err := importer.Import(imp, r, b.store, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		closeBoard(b)
		os.Exit(1)
	}

	fmt.Printf("Import complete!\n")
	fmt.Printf("  Imported: %d todos\n", result.Imported)
	if result.ProjectsCreated > 0 {
		fmt.Printf("  Projects: %d created\n", result.ProjectsCreated)
	}
	if result.Skipped > 0 {
		fmt.Printf("  Skipped:  %d items\n", result.Skipped)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors:   %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
}
