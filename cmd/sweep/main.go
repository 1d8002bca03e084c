// Command sweep expire les invitations échues et notifie les parties.
// Prévu pour un planificateur externe (cron), une exécution par appel.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LovationAdmin/goals-api/config"
	"github.com/LovationAdmin/goals-api/migration"
	"github.com/LovationAdmin/goals-api/services"
	"github.com/LovationAdmin/goals-api/storage"
)

type options struct {
	repair       bool
	repairWindow time.Duration
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var opts options
	fs.BoolVar(&opts.repair, "repair", false, "also re-create missing collaborator rows for accepted invitations")
	fs.DurationVar(&opts.repairWindow, "repair-window", migration.DefaultRepairWindow, "how far back the repair pass looks")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := config.SetupTracing(ctx, cfg, "goals-sweep")
	if err != nil {
		log.Printf("⚠️ Tracing disabled: %v", err)
	}

	runErr := run(ctx, cfg, opts, os.Stdout)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("⚠️ Tracing shutdown: %v", err)
	}

	if runErr != nil {
		log.Printf("❌ Sweep failed: %v", runErr)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, opts options, out io.Writer) error {
	db, err := config.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := config.RunMigrations(ctx, db); err != nil {
		return err
	}

	store := storage.New(db)
	notifications := services.NewNotificationService(store, nil)
	invitations := services.NewInvitationService(store, notifications, services.NewMessages(cfg.NotificationLocale),
		services.WithInvitationTTL(cfg.InvitationTTL))

	result, sweepErr := invitations.SweepExpiredInvitations(ctx)
	if err := json.NewEncoder(out).Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if sweepErr != nil {
		return sweepErr
	}

	if !opts.repair {
		return nil
	}
	stats, err := migration.RepairCollaborators(ctx, store, time.Now().UTC(), opts.repairWindow)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(stats)
}
