package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LovationAdmin/goals-api/config"
	"github.com/LovationAdmin/goals-api/migration"
	"github.com/LovationAdmin/goals-api/models"
	"github.com/LovationAdmin/goals-api/services"
	"github.com/LovationAdmin/goals-api/storage"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags(flag.NewFlagSet("sweep", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.repair || opts.repairWindow != migration.DefaultRepairWindow {
		t.Fatalf("defaults = %+v", opts)
	}

	opts, err = parseFlags(flag.NewFlagSet("sweep", flag.ContinueOnError), []string{"-repair", "-repair-window", "12h"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if !opts.repair || opts.repairWindow != 12*time.Hour {
		t.Fatalf("opts = %+v", opts)
	}

	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := parseFlags(fs, []string{"-repair-window", "soon"}); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func seedExpiredInvitation(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()

	db, err := config.InitDB(config.DriverSQLite, path)
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	defer db.Close()
	if err := config.RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	store := storage.New(db)
	created := time.Now().UTC().Add(-5 * 24 * time.Hour)
	for _, p := range []models.Profile{
		{ID: "owner", Email: "owner@example.com", Name: "Olivia", CreatedAt: created},
		{ID: "friend", Email: "friend@example.com", Name: "Farid", CreatedAt: created},
	} {
		if err := store.UpsertProfile(ctx, p); err != nil {
			t.Fatalf("UpsertProfile() error = %v", err)
		}
	}
	if err := store.InsertGoal(ctx, models.Goal{
		ID: "goal-1", OwnerID: "owner", Title: "Vacances", TargetAmount: decimal.NewFromInt(1000),
		SavedAmount: decimal.Zero, Currency: "EUR", CreatedAt: created, UpdatedAt: created,
	}); err != nil {
		t.Fatalf("InsertGoal() error = %v", err)
	}
	if err := store.InsertInvitation(ctx, models.Invitation{
		ID: "inv-1", GoalID: "goal-1", InviterID: "owner", InviteeID: "friend",
		Status: models.InvitationPending, CreatedAt: created, UpdatedAt: created,
		ExpiresAt: created.Add(72 * time.Hour),
	}); err != nil {
		t.Fatalf("InsertInvitation() error = %v", err)
	}
}

func TestRunSweepsExpiredInvitations(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "goals.db")
	seedExpiredInvitation(t, path)

	cfg := config.Config{
		DatabaseDriver:     config.DriverSQLite,
		DatabaseURL:        path,
		NotificationLocale: "en",
		InvitationTTL:      72 * time.Hour,
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, options{repair: true, repairWindow: time.Hour}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	dec := json.NewDecoder(&out)
	var result services.SweepResult
	if err := dec.Decode(&result); err != nil {
		t.Fatalf("decode sweep result: %v", err)
	}
	if !result.Success || result.ProcessedCount != 1 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}
	var stats migration.RepairStats
	if err := dec.Decode(&stats); err != nil {
		t.Fatalf("decode repair stats: %v", err)
	}
	if stats.Checked != 0 {
		t.Fatalf("repair stats = %+v", stats)
	}

	// second passage: rien à faire
	out.Reset()
	if err := run(context.Background(), cfg, options{}, &out); err != nil {
		t.Fatalf("second run() error = %v", err)
	}
	result = services.SweepResult{}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decode second result: %v", err)
	}
	if !result.Success || result.ProcessedCount != 0 {
		t.Fatalf("second result = %+v, want 0 processed", result)
	}
}

func TestRunFailsWithoutDatabase(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := run(context.Background(), config.Config{DatabaseDriver: config.DriverSQLite}, options{}, &out); err == nil {
		t.Fatal("expected error without database url")
	}
}
