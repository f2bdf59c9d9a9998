// Package main is the entry point for the focusboard application.
// This file contains the serve subcommand handler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focusboard/internal/remote"
)

const serveHelpText = `focusboard serve - Share snapshots with other devices over HTTP

USAGE:
    focusboard serve [OPTIONS]

OPTIONS:
    --addr ADDR    Listen address (default :8787)
    --db PATH      Snapshot database (default: sync.sqlite_path)
    -h, --help     Show this help message

DESCRIPTION:
    Serves the snapshot API from a SQLite database:
        GET /api/snapshots/{userID}   fetch a snapshot (404 when none)
        PUT /api/snapshots/{userID}   store a snapshot
        GET /healthz                  liveness check
    Point other devices at it with sync.backend: http and sync.url.
    There is no authentication; run it on a trusted network.

EXAMPLES:
    focusboard serve --addr 0.0.0.0:8787
`

// runServe handles the "focusboard serve" subcommand.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	addrFlag := fs.String("addr", ":8787", "listen address")
	dbFlag := fs.String("db", "", "snapshot database path")
	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, serveHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *helpFlag {
		fmt.Print(serveHelpText)
		os.Exit(0)
	}

	path := *dbFlag
	if path == "" {
		path = loadConfig().SQLitePath()
	}

	logger := stderrLogger()
	db, err := remote.OpenSQLite(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening snapshot database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := &http.Server{
		Addr:              *addrFlag,
		Handler:           remote.NewHandler(db, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Printf("serving snapshots from %s on %s", path, *addrFlag)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			db.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}
}
