// Package main starts the MIRA journal API service and handles termination.
//
// The process wires SQLite persistence, the Ollama event extractor, and the
// Google Calendar sync adapter behind one authenticated JSON HTTP surface.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	journalcmd "github.com/mirajournal/mira/internal/cmd/journal"
)

func main() {
	cfg, err := journalcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[JOURNAL] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := journalcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
