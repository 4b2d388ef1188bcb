// Command migrate applies, inspects and reverts the versioned SQL schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"marketplace/internal/config"
	"marketplace/internal/database"
)

const usageText = "usage: migrate <up|status|down> [-version N]"

type command struct {
	name    string
	version int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// parseCommand accepts "up", "status", and "down" with its target version
// given either as -version N or as a trailing argument.
func parseCommand(args []string) (command, error) {
	if len(args) < 1 {
		return command{}, errors.New(usageText)
	}
	cmd := command{name: strings.ToLower(strings.TrimSpace(args[0]))}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.IntVar(&cmd.version, "version", 0, "migration version to roll back")
	if err := fs.Parse(args[1:]); err != nil {
		return command{}, err
	}

	switch cmd.name {
	case "up", "status":
		return cmd, nil
	case "down":
		if cmd.version == 0 && fs.NArg() > 0 {
			v, err := strconv.Atoi(fs.Arg(0))
			if err != nil {
				return command{}, fmt.Errorf("invalid version %q: %w", fs.Arg(0), err)
			}
			cmd.version = v
		}
		if cmd.version <= 0 {
			return command{}, errors.New("down needs a positive -version")
		}
		return cmd, nil
	default:
		return command{}, errors.New(usageText)
	}
}

func run(args []string) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch cmd.name {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "status":
		applied, pending, err := database.MigrationStatus(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("applied=%v pending=%d", applied, len(pending))
		for _, m := range pending {
			log.Printf("pending: %s", m.String())
		}
	case "down":
		if err := database.RollbackMigration(ctx, db, cmd.version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", cmd.version)
	}
	return nil
}
