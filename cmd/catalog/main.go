package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/pricewatch/internal/app"
	"github.com/Clark-Hu/pricewatch/internal/catalog"
	"github.com/Clark-Hu/pricewatch/internal/config"
	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/logging"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

const usage = `usage: catalog <command> [flags]

commands:
  add       -name N -url U                         track a movie
  purchase  -movie ID -date YYYY-MM-DD -amount A -vendor V
                                                   record a purchase
  ids       [-exclude-purchased]                   list movie ids by name
  vendor    -id I -name N                          add or rename a vendor
  backup    [-dir D]                               export the catalog as CSV
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil && !errors.Is(err, store.ErrFreshStore) {
		logger.WithError(err).Fatal("open catalog")
	}
	defer st.Close()

	lookup, err := app.NewLookup(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("init lookup client")
	}
	svc := catalog.NewService(st, lookup, app.CatalogOptions(cfg), logger)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "add":
		err = runAdd(ctx, svc, args)
	case "purchase":
		err = runPurchase(ctx, svc, args)
	case "ids":
		err = runIDs(ctx, svc, args)
	case "vendor":
		err = runVendor(ctx, svc, args)
	case "backup":
		err = runBackup(ctx, st, cfg.BackupDir, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		st.Close()
		os.Exit(2)
	}
	if err != nil {
		logger.WithFields(logrus.Fields{"command": cmd}).WithError(err).Error("catalog command failed")
		st.Close()
		os.Exit(1)
	}
}

func runAdd(ctx context.Context, svc *catalog.Service, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "movie title to search for")
	url := fs.String("url", "", "lookup url of the movie")
	_ = fs.Parse(args)

	movie, err := svc.AddMovie(ctx, *name, *url)
	if errors.Is(err, catalog.ErrAlreadyTracked) {
		fmt.Printf("%s is already tracked as id %d\n", movie.Name, movie.ID)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s added with id %d\n", movie.Name, movie.ID)
	return nil
}

func runPurchase(ctx context.Context, svc *catalog.Service, args []string) error {
	fs := flag.NewFlagSet("purchase", flag.ExitOnError)
	movieID := fs.Int64("movie", 0, "movie id")
	date := fs.String("date", time.Now().Format(time.DateOnly), "purchase date")
	amount := fs.String("amount", "", "purchase amount")
	vendorID := fs.Int("vendor", 0, "vendor id")
	_ = fs.Parse(args)

	day, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("parse -amount: %w", err)
	}

	if _, err := svc.RecordPurchase(ctx, catalog.PurchaseInput{MovieID: *movieID, Date: day, Amount: value, VendorID: *vendorID}); err != nil {
		return err
	}
	fmt.Println("Record updated!")
	return nil
}

func runIDs(ctx context.Context, svc *catalog.Service, args []string) error {
	fs := flag.NewFlagSet("ids", flag.ExitOnError)
	exclude := fs.Bool("exclude-purchased", false, "hide movies whose purchase is recorded")
	_ = fs.Parse(args)

	entries, err := svc.NameIndex(ctx, *exclude)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\n", e.Identifier, e.ID)
	}
	return tw.Flush()
}

func runVendor(ctx context.Context, svc *catalog.Service, args []string) error {
	fs := flag.NewFlagSet("vendor", flag.ExitOnError)
	id := fs.Int("id", 0, "vendor id")
	name := fs.String("name", "", "vendor name as the lookup reports it")
	_ = fs.Parse(args)

	v, err := svc.PutVendor(ctx, domain.Vendor{ID: *id, Name: *name})
	if err != nil {
		return err
	}
	fmt.Printf("vendor %d is %s\n", v.ID, v.Name)
	return nil
}

func runBackup(ctx context.Context, st *store.Store, defaultDir string, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dir := fs.String("dir", defaultDir, "backup directory")
	_ = fs.Parse(args)

	path, err := st.Backup(ctx, *dir, domain.DateOnly(time.Now()))
	if err != nil {
		return err
	}
	fmt.Printf("backup written to %s\n", path)
	return nil
}
