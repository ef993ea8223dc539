package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/holidays"
	"github.com/pcdogyu/market-closure/internal/logging"
	"github.com/pcdogyu/market-closure/internal/market"
	"github.com/pcdogyu/market-closure/internal/service"
	"github.com/pcdogyu/market-closure/internal/store/sqlite"
)

var logger = zap.NewNop()

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "init-db":
		fs := flag.NewFlagSet("init-db", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		_ = fs.Parse(os.Args[2:])

		cfg := loadConfig(*cfgPath)
		db := openDB(cfg)
		defer db.Close()
		logger.Info("db initialized", zap.String("path", cfg.DBPath))
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		venue := fs.String("venue", "", "only this venue; exit status 1 when it is halted")
		sym := fs.String("symbol", "", "like -venue, resolved from a symbol such as 600519.SH")
		atStr := fs.String("at", "", "evaluate at this RFC3339 time instead of now")
		_ = fs.Parse(os.Args[2:])

		cfg := loadConfig(*cfgPath)
		db := openDB(cfg)
		defer db.Close()
		reg, err := newRegistry(cfg, db)
		fatalIf(err)
		if *sym != "" {
			*venue, err = reg.VenueForSymbol(*sym)
			fatalIf(err)
		}

		at := time.Now()
		if *atStr != "" {
			at, err = time.Parse(time.RFC3339, *atStr)
			fatalIf(err)
		}
		code := runCheck(reg, *venue, at)
		_ = db.Close()
		os.Exit(code)
	case "import-alpaca":
		fs := flag.NewFlagSet("import-alpaca", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		venue := fs.String("venue", "", "venue to attach the imported holidays to")
		from := fs.String("from", "", "first date (YYYY-MM-DD), default: today")
		to := fs.String("to", "", "last date (YYYY-MM-DD), default: one year after -from")
		regularClose := fs.String("close", "16:00", "regular close (HH:MM, exchange time)")
		_ = fs.Parse(os.Args[2:])

		cfg := loadConfig(*cfgPath)
		if _, ok := cfg.Venue(*venue); !ok {
			fatalIf(fmt.Errorf("unknown venue %q", *venue))
		}
		start, end, err := importRange(*from, *to, time.Now())
		fatalIf(err)

		db := openDB(cfg)
		defer db.Close()

		imp := holidays.AlpacaImporter{
			Client: holidays.NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL),
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		hs, err := imp.Import(ctx, start, end, *regularClose)
		fatalIf(err)
		fatalIf(sqlite.ReplaceImportedHolidays(db, *venue, "alpaca", hs))
		logger.Info("imported holidays",
			zap.String("venue", *venue),
			zap.Int("count", len(hs)),
			zap.String("from", start.Format("2006-01-02")),
			zap.String("to", end.Format("2006-01-02")),
		)
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		cfgPath := fs.String("config", "configs/config.yaml", "config path (YAML)")
		_ = fs.Parse(os.Args[2:])

		fatalIf(serve(*cfgPath))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  closure init-db       -config configs/config.yaml")
	fmt.Fprintln(os.Stderr, "  closure check         -config configs/config.yaml [-venue XNYS | -symbol 600519.SH] [-at 2024-03-04T15:00:00Z]")
	fmt.Fprintln(os.Stderr, "  closure import-alpaca -config configs/config.yaml -venue XNYS [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-close 16:00]")
	fmt.Fprintln(os.Stderr, "  closure serve         -config configs/config.yaml")
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	fatalIf(err)
	l, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	fatalIf(err)
	logger = l
	return cfg
}

func openDB(cfg config.Config) *sql.DB {
	db, err := sqlite.Open(cfg.DBPath)
	fatalIf(err)
	fatalIf(sqlite.Migrate(db))
	return db
}

func newRegistry(cfg config.Config, db *sql.DB) (*service.Registry, error) {
	return service.NewRegistry(cfg, service.WithImportedHolidays(func(venue string) ([]market.Holiday, error) {
		return sqlite.QueryImportedHolidays(db, venue)
	}))
}

// runCheck prints venue statuses at t and returns the process exit code.
func runCheck(reg *service.Registry, venue string, t time.Time) int {
	var statuses []service.VenueStatus
	if venue != "" {
		st, err := reg.StatusAt(venue, t)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		statuses = append(statuses, st)
	} else {
		for _, name := range reg.Names() {
			st, _ := reg.StatusAt(name, t)
			statuses = append(statuses, st)
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VENUE\tLOCAL\tWEEKDAY\tIN_HOURS\tIN_HOLIDAY\tHALTED")
	for _, st := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%v\n",
			st.Venue, st.Local.Format("2006-01-02 15:04 MST"), st.Weekday, st.InHours, st.InHoliday, st.Halted)
	}
	_ = tw.Flush()

	if venue != "" && statuses[0].Halted {
		return 1
	}
	return 0
}

func importRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if from != "" {
		d, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("-from: %w", err)
		}
		start = d
	}
	end := start.AddDate(1, 0, 0)
	if to != "" {
		d, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("-to: %w", err)
		}
		end = d
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to is before -from")
	}
	return start, end, nil
}

func fatalIf(err error) {
	if err != nil {
		logger.Error("fatal", zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
