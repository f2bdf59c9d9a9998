// Package main is the entry point for the focusboard application.
// This file contains the backup subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"focusboard/internal/backup"
)

// backupHelpText is the help message for the backup subcommand.
const backupHelpText = `focusboard backup - Create and manage backups

USAGE:
    focusboard backup [OPTIONS]

OPTIONS:
    -l, --list       List available backups
    --prune N        Delete all but the N most recent backups
    -h, --help       Show this help message

DESCRIPTION:
    Creates a timestamped copy of your board (projects, todos, sessions).
    Backups are stored in ~/.focusboard/backups/ and can be restored later.

EXAMPLES:
    # Create a new backup
    focusboard backup

    # List all available backups
    focusboard backup --list

    # Keep only the ten newest backups
    focusboard backup --prune 10
`

// runBackup handles the "focusboard backup" subcommand.
func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)

	listFlag := fs.Bool("list", false, "list available backups")
	fs.BoolVar(listFlag, "l", false, "list available backups (shorthand)")

	pruneFlag := fs.Int("prune", -1, "keep only the N most recent backups")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, backupHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(backupHelpText)
		os.Exit(0)
	}

	cfg := loadConfig()
	manager := backup.NewManager(cfg.GetDataDir(), cfg.StorageName, version)

	switch {
	case *listFlag:
		listBackups(manager)
	case *pruneFlag >= 0:
		pruneBackups(manager, *pruneFlag)
	default:
		createBackup(manager)
	}
}

// createBackup creates a new backup and displays the result.
func createBackup(manager *backup.Manager) {
	name, err := manager.Create()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating backup: %v\n", err)
		os.Exit(1)
	}

	info, err := manager.GetBackup(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading backup info: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Backup created: %s\n", name)
	fmt.Printf("  %s\n", formatStats(info.Stats))
	fmt.Printf("  Location: %s\n", info.Path)
}

// listBackups lists all available backups.
func listBackups(manager *backup.Manager) {
	backups, err := manager.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing backups: %v\n", err)
		os.Exit(1)
	}

	if len(backups) == 0 {
		fmt.Println("No backups available.")
		fmt.Println("Run 'focusboard backup' to create one.")
		return
	}

	fmt.Println("Available backups:")
	for _, b := range backups {
		fmt.Printf("  %s  (%s)   %s\n", b.Name, formatAge(b.CreatedAt), formatStats(b.Stats))
	}
}

func pruneBackups(manager *backup.Manager, keep int) {
	deleted, err := manager.Prune(keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning backups: %v\n", err)
		os.Exit(1)
	}
	if deleted == 0 {
		fmt.Println("Nothing to prune.")
		return
	}
	fmt.Printf("✓ Deleted %d old backup(s), kept %d\n", deleted, keep)
}

// formatStats renders the entity counts of a backup.
func formatStats(stats map[string]int) string {
	return fmt.Sprintf("Projects: %d, Todos: %d, Sessions: %d",
		stats["projects"], stats["todos"], stats["sessions"])
}

// formatAge returns a human-readable age string.
func formatAge(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return plural(days, "day") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
