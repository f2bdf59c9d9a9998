// Package main is the entry point for the focusboard application.
// This file contains the restore subcommand handler.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"focusboard/internal/backup"
)

// restoreHelpText is the help message for the restore subcommand.
const restoreHelpText = `focusboard restore - Restore your board from a backup

USAGE:
    focusboard restore [OPTIONS] [BACKUP_NAME]

OPTIONS:
    --latest       Restore from the most recent backup
    --force, -f    Skip confirmation prompt
    -h, --help     Show this help message

ARGUMENTS:
    BACKUP_NAME    Name of the backup to restore (e.g., 2026-10-15_143022_000)
                   Use 'focusboard backup --list' to see available backups.

DESCRIPTION:
    Replaces the board with the one saved in a backup. A safety backup of
    the current board is created first. Quit the dashboard before restoring;
    a running dashboard would write its own state back on the next change.

EXAMPLES:
    # Restore from a specific backup
    focusboard restore 2026-10-15_143022_000

    # Restore from the most recent backup
    focusboard restore --latest

    # Restore without confirmation prompt
    focusboard restore --force 2026-10-15_143022_000
`

// runRestore handles the "focusboard restore" subcommand.
func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)

	latestFlag := fs.Bool("latest", false, "restore from most recent backup")
	forceFlag := fs.Bool("force", false, "skip confirmation prompt")
	fs.BoolVar(forceFlag, "f", false, "skip confirmation prompt (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, restoreHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(restoreHelpText)
		os.Exit(0)
	}

	cfg := loadConfig()
	manager := backup.NewManager(cfg.GetDataDir(), cfg.StorageName, version)

	var backupName string
	switch {
	case *latestFlag:
		backups, err := manager.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing backups: %v\n", err)
			os.Exit(1)
		}
		if len(backups) == 0 {
			fmt.Fprintln(os.Stderr, "No backups available.")
			os.Exit(1)
		}
		backupName = backups[0].Name
	case fs.NArg() > 0:
		backupName = fs.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "Error: no backup specified")
		fmt.Fprintln(os.Stderr, "Use 'focusboard restore BACKUP_NAME' or 'focusboard restore --latest'")
		fmt.Fprintln(os.Stderr, "Run 'focusboard backup --list' to see available backups.")
		os.Exit(1)
	}

	info, err := manager.GetBackup(backupName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Restoring from backup: %s\n", info.Name)
	fmt.Printf("  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  %s\n", formatStats(info.Stats))
	fmt.Println()

	if !*forceFlag {
		fmt.Println("⚠ This will overwrite your current board.")
		ok, err := confirm("Continue? [y/N] ", false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			os.Exit(0)
		}
	}

	fmt.Println("✓ Creating safety backup first...")
	safety, err := manager.Restore(backupName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring backup: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Restored successfully from %s\n", backupName)
	fmt.Printf("  Safety backup: %s\n", safety)
}

var stdin = bufio.NewReader(os.Stdin)

// confirm asks a yes/no question on stdin. An empty answer returns def.
func confirm(prompt string, def bool) (bool, error) {
	fmt.Print(prompt)
	response, err := stdin.ReadString('\n')
	if err != nil && strings.TrimSpace(response) == "" {
		return false, err
	}
	switch strings.TrimSpace(strings.ToLower(response)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
