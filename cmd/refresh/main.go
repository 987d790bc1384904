package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Clark-Hu/pricewatch/internal/app"
	"github.com/Clark-Hu/pricewatch/internal/config"
	"github.com/Clark-Hu/pricewatch/internal/logging"
	"github.com/Clark-Hu/pricewatch/internal/reconcile"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

func main() {
	var (
		dbURL       = flag.String("db", "", "catalog database url (overrides DB_URL)")
		backupDir   = flag.String("backup-dir", "", "backup directory (overrides BACKUP_DIR)")
		concurrency = flag.Int("concurrency", 0, "parallel lookups (overrides LOOKUP_CONCURRENCY)")
	)
	flag.Parse()

	if *dbURL != "" {
		_ = os.Setenv("DB_URL", *dbURL)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	if *backupDir != "" {
		cfg.BackupDir = *backupDir
	}
	if *concurrency > 0 {
		cfg.LookupConcurrency = *concurrency
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenStore(ctx, cfg, logger)
	if errors.Is(err, store.ErrFreshStore) {
		st.Close()
		fmt.Println("No movies in database. Add movies with the catalog command, then run refresh again.")
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("open catalog")
	}
	defer st.Close()

	lookup, err := app.NewLookup(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("init lookup client")
	}

	sc := reconcile.NewStoreCatalog(st, cfg.BackupDir)
	pipeline := reconcile.New(sc, lookup, sc, app.PipelineOptions(cfg), logger)

	report, err := pipeline.Run(ctx)
	if err != nil {
		logger.WithError(err).WithField("run_id", report.RunID).Error("refresh aborted")
		st.Close()
		os.Exit(1)
	}

	switch report.Outcome {
	case reconcile.OutcomeNothingToQuery:
		fmt.Println("No movies in database. Add movies with the catalog command, then run refresh again.")
	case reconcile.OutcomeNoPrices:
		fmt.Println("No prices recorded")
	case reconcile.OutcomeFinished:
		fmt.Printf("Appended %d prices, backup at %s\n", report.Appended, report.BackupPath)
		fmt.Println("Finished!")
	}
	if summary := report.SkipSummary(); summary != "" {
		fmt.Printf("Skipped: %s\n", summary)
	}
}
