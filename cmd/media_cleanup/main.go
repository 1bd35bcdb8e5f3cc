package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/cms-backend/internal/app"
)

func main() {
	var retentionDays int
	var dryRun bool
	flag.IntVar(&retentionDays, "retention-days", -1, "purge assets trashed longer than this many days (default: MEDIA_RETENTION_DAYS)")
	flag.BoolVar(&dryRun, "dry-run", false, "report how many assets would be purged without deleting anything")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, cfg, db, err := app.Bootstrap(ctx)
	if err != nil {
		fmt.Printf("init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if retentionDays < 0 {
		retentionDays = cfg.RetentionDays
	}
	cfg.RetentionDays = retentionDays

	_, services, err := app.WireServices(ctx, db, log, cfg)
	defer services.Close()
	if err != nil {
		fmt.Printf("wire services: %v\n", err)
		os.Exit(1)
	}

	if dryRun {
		n, err := services.Media.GetCleanupCount(ctx, retentionDays)
		if err != nil {
			fmt.Printf("count expired media: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[dry-run] %d asset(s) trashed more than %d day(s) ago would be purged\n", n, retentionDays)
		return
	}

	res, ran, err := services.Cleanup.RunOnce(ctx)
	if err != nil {
		fmt.Printf("cleanup failed: %v\n", err)
		os.Exit(1)
	}
	if !ran {
		fmt.Println("another cleanup run holds the lock; nothing done")
		return
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	if res.Failed > 0 {
		os.Exit(2)
	}
}
